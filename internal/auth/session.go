package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const maxLoginBody = 64 << 10

// dummyHash is compared against when the user or client does not exist
// so failures take about as long as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("authkit-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      loginUser `json:"user"`
}

// HandleLogin returns the /auth/login handler. It exchanges a username
// and password for a user session token. Failed attempts are rate
// limited per client IP.
func HandleLogin(store Store, issuer *Issuer, logger *slog.Logger) http.HandlerFunc {
	limiter := newLoginRateLimiter(issuer.now)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ip := remoteIP(r)

		if limiter.limited(ip) {
			logger.Warn("login: rate limited", slog.String("ip", ip))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":   "rate_limited",
				"message": "Too many failed login attempts, try again later",
			})
			return
		}

		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "invalid_request",
				"message": "invalid request body",
			})
			return
		}

		username := models.NormalizeUsername(req.Username)
		if username == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "invalid_request",
				"message": "username and password are required",
			})
			return
		}

		user, err := store.UserByUsername(r.Context(), username)
		if err != nil {
			logger.Error("login: user lookup failed", slog.String("error", err.Error()))
			writeReject(w, rejectServerError(), "")
			return
		}

		if !passwordMatches(user, req.Password) {
			limiter.record(ip)
			logger.Info("login: failed",
				slog.String("username", username),
				slog.String("ip", ip),
			)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":   "invalid_credentials",
				"message": "Invalid username or password",
			})
			return
		}

		limiter.reset(ip)

		issued, err := issuer.IssueSession(r.Context(), user)
		if err != nil {
			logger.Error("login: issuing session failed",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			writeReject(w, rejectServerError(), "")
			return
		}

		logger.Info("login: session created",
			slog.String("user_id", user.ID),
			slog.String("session_id", issued.ID),
			slog.String("ip", ip),
		)

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, loginResponse{
			Token:     issued.Token,
			TokenType: "Bearer",
			ExpiresAt: issued.ExpiresAt,
			User: loginUser{
				ID:       user.ID,
				Username: user.Username,
				Email:    user.Email,
				Role:     user.Role,
			},
		})
	}
}

func passwordMatches(user *models.User, password string) bool {
	if user == nil || !user.IsActive {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// HandleLogout returns the /auth/logout handler. It revokes the
// credential the request was authenticated with: the session for users,
// the presented access token for OAuth2 clients.
func HandleLogout(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		switch t := TrustFromContext(r.Context()).(type) {
		case *UserSessionTrust:
			if _, err := store.RevokeSession(r.Context(), t.SessionID); err != nil {
				logger.Error("logout: revoking session failed",
					slog.String("session_id", t.SessionID),
					slog.String("error", err.Error()),
				)
				writeReject(w, rejectServerError(), "")
				return
			}

			logger.Info("logout: session revoked",
				slog.String("user_id", t.UserID),
				slog.String("session_id", t.SessionID),
			)

		case *OAuth2Trust:
			raw, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error":   "invalid_request",
					"message": "logout requires a bearer token",
				})
				return
			}

			if _, err := store.RevokeAccessToken(r.Context(), models.TokenHash(raw)); err != nil {
				logger.Error("logout: revoking access token failed",
					slog.String("client_id", RequestClientID(r.Context())),
					slog.String("error", err.Error()),
				)
				writeReject(w, rejectServerError(), "")
				return
			}

			logger.Info("logout: access token revoked",
				slog.String("client_id", RequestClientID(r.Context())),
				slog.String("token_id", t.TokenID),
			)

		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "invalid_request",
				"message": "logout requires an authenticated caller",
			})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
