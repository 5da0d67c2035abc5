package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/alexjbarnes/authkit/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// HandleToken returns the /oauth/token handler. It implements the
// client_credentials grant for registered clients, authenticated either
// with HTTP Basic (form-encoded id and secret, RFC 6749 Section 2.3.1)
// or with client_id and client_secret in the body.
func HandleToken(store Store, issuer *Issuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid form data")
			return
		}

		if gt := r.PostForm.Get("grant_type"); gt != string(TokenTypeClientCredentials) {
			writeJSONError(w, http.StatusBadRequest, "unsupported_grant_type", "only client_credentials is supported")
			return
		}

		clientID, secret, err := clientCredentials(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		client, err := store.ClientByID(r.Context(), clientID)
		if err != nil {
			logger.Error("token: client lookup failed", slog.String("error", err.Error()))
			writeJSONError(w, http.StatusInternalServerError, CodeServerError, "internal server error")
			return
		}

		if !clientSecretMatches(client, secret) {
			logger.Debug("token: client authentication failed",
				slog.String("client_id", clientID),
				slog.String("ip", remoteIP(r)),
			)
			w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
			writeJSONError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
			return
		}

		scopes, ok := grantedScopes(client, r.PostForm.Get("scope"))
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "invalid_scope", "requested scope exceeds the client's scopes")
			return
		}

		issued, err := issuer.IssueClientToken(r.Context(), client, scopes)
		if err != nil {
			logger.Error("token: issuing failed",
				slog.String("client_id", client.ClientID),
				slog.String("error", err.Error()),
			)
			writeJSONError(w, http.StatusInternalServerError, CodeServerError, "internal server error")
			return
		}

		logger.Info("token: issued client token",
			slog.String("client_id", client.ClientID),
			slog.String("token_id", issued.ID),
			slog.String("scope", strings.Join(scopes, " ")),
		)

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: issued.Token,
			TokenType:   "Bearer",
			ExpiresIn:   int(issuer.accessTTL.Seconds()),
			Scope:       strings.Join(scopes, " "),
		})
	}
}

// clientCredentials reads the client's id and secret from exactly one
// of the Authorization header or the form body.
func clientCredentials(r *http.Request) (id, secret string, err error) {
	basicID, basicSecret, hasBasic := r.BasicAuth()
	bodyID := r.PostForm.Get("client_id")
	bodySecret := r.PostForm.Get("client_secret")

	switch {
	case hasBasic && bodySecret != "":
		return "", "", errors.New("multiple client authentication methods")
	case hasBasic:
		if id, err = url.QueryUnescape(basicID); err != nil {
			return "", "", errors.New("malformed client_id in Authorization header")
		}
		if secret, err = url.QueryUnescape(basicSecret); err != nil {
			return "", "", errors.New("malformed client_secret in Authorization header")
		}
		return id, secret, nil
	case bodyID != "":
		return bodyID, bodySecret, nil
	default:
		return "", "", errors.New("client authentication is required")
	}
}

func clientSecretMatches(client *models.Client, secret string) bool {
	if client == nil || !client.IsActive || secret == "" {
		// Spend comparable time on unknown clients.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(secret))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)) == nil
}

// grantedScopes resolves the requested scope string against the
// client's registered scopes. An empty request grants every registered
// scope.
func grantedScopes(client *models.Client, requested string) ([]string, bool) {
	want := strings.Fields(requested)
	if len(want) == 0 {
		return client.Scopes, true
	}

	out := make([]string, 0, len(want))
	for _, s := range want {
		if !slices.Contains(client.Scopes, s) {
			return nil, false
		}
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out, true
}
