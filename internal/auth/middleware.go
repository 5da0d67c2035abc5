package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// MiddlewareConfig holds the middleware's dependencies. Required is the
// explicit auth switch: false lets every request through with no trust
// record and opens the gates.
type MiddlewareConfig struct {
	Store     TrustStore
	Signer    *Signer
	Required  bool
	Logger    *slog.Logger
	ServerURL string
	Now       func() time.Time
}

// Middleware validates bearer tokens against live store state.
type Middleware struct {
	store       TrustStore
	signer      *Signer
	required    bool
	logger      *slog.Logger
	metadataURL string
	now         func() time.Time
}

// NewMiddleware builds a Middleware from cfg.
func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	m := &Middleware{
		store:    cfg.Store,
		signer:   cfg.Signer,
		required: cfg.Required,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if cfg.ServerURL != "" {
		m.metadataURL = strings.TrimRight(cfg.ServerURL, "/") + "/.well-known/oauth-protected-resource"
	}

	return m
}

// Required reports whether authentication is enforced.
func (m *Middleware) Required() bool {
	return m.required
}

// Authenticate rejects requests without a valid bearer token and
// attaches the trust record to the context of those it accepts.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withRemoteIP(r)

		if !m.required {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		trust, rej := m.authenticate(r.WithContext(ctx))
		if rej != nil {
			writeReject(w, rej, m.metadataURL)
			return
		}

		next.ServeHTTP(w, r.WithContext(withTrust(ctx, trust)))
	})
}

// Optional behaves like Authenticate but lets rejected requests continue
// anonymously.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withRemoteIP(r)

		if !m.required {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		trust, rej := m.authenticate(r.WithContext(ctx))
		if rej != nil {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		next.ServeHTTP(w, r.WithContext(withTrust(ctx, trust)))
	})
}

// authenticate runs presence, signature, classification and lookup in
// order. The first failing step decides the rejection.
func (m *Middleware) authenticate(r *http.Request) (Trust, *RejectError) {
	ip := RequestRemoteIP(r.Context())

	raw, ok := bearerToken(r)
	if !ok {
		m.logger.Debug("middleware: no bearer token",
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
		)
		return nil, rejectUnauthorized()
	}

	claims, err := m.signer.Parse(raw)
	if err != nil {
		rej := classifyVerifyError(err)
		if rej.Status == http.StatusInternalServerError {
			m.logger.Error("middleware: token verification failed",
				slog.String("ip", ip),
				slog.String("error", err.Error()),
			)
		} else {
			m.logger.Debug("middleware: rejected token",
				slog.String("ip", ip),
				slog.String("code", rej.Code),
				slog.String("error", err.Error()),
			)
		}
		return nil, rej
	}

	hash := models.TokenHash(raw)

	switch claims.Type {
	case TokenTypeClientCredentials:
		return m.checkAccessToken(r, hash, claims)
	case TokenTypeUserSession:
		return m.checkSession(r, hash, claims)
	default:
		m.logger.Debug("middleware: unknown token type",
			slog.String("type", string(claims.Type)),
			slog.String("ip", ip),
		)
		return nil, rejectInvalidToken()
	}
}

func (m *Middleware) checkAccessToken(r *http.Request, hash string, claims *Claims) (Trust, *RejectError) {
	ctx := r.Context()

	row, err := m.store.LookupAccessToken(ctx, hash)
	if err != nil {
		m.logger.Error("middleware: access token lookup failed", slog.String("error", err.Error()))
		return nil, rejectServerError()
	}

	switch {
	case row == nil, row.IsRevoked, !row.ClientActive, row.ClientID != claims.Subject:
		m.logger.Debug("middleware: access token not trusted",
			slog.String("client_id", claims.Subject),
			slog.String("ip", RequestRemoteIP(ctx)),
		)
		return nil, rejectInvalidToken()
	case !m.now().Before(row.ExpiresAt):
		return nil, rejectTokenExpired()
	}

	m.logger.Debug("middleware: authenticated via client token",
		slog.String("client_id", row.ClientID),
		slog.String("ip", RequestRemoteIP(ctx)),
	)

	return &OAuth2Trust{
		TokenID:    row.ID,
		ClientID:   row.ClientID,
		ClientName: row.ClientName,
		Scopes:     row.Scopes,
		ExpiresAt:  row.ExpiresAt,
	}, nil
}

func (m *Middleware) checkSession(r *http.Request, hash string, claims *Claims) (Trust, *RejectError) {
	ctx := r.Context()

	sess, err := m.store.LookupSession(ctx, hash)
	if err != nil {
		m.logger.Error("middleware: session lookup failed", slog.String("error", err.Error()))
		return nil, rejectServerError()
	}

	now := m.now()

	switch {
	case sess == nil, sess.IsRevoked, !sess.User.IsActive, sess.UserID != claims.Subject:
		m.logger.Debug("middleware: session not trusted",
			slog.String("user_id", claims.Subject),
			slog.String("ip", RequestRemoteIP(ctx)),
		)
		return nil, rejectInvalidSession()
	case !now.Before(sess.ExpiresAt):
		return nil, rejectSessionExpired()
	}

	if err := m.store.TouchSession(ctx, sess.ID, now); err != nil {
		m.logger.Warn("middleware: touching session failed",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	m.logger.Debug("middleware: authenticated via session",
		slog.String("user_id", sess.UserID),
		slog.String("ip", RequestRemoteIP(ctx)),
	)

	return &UserSessionTrust{
		UserID:    sess.UserID,
		Username:  sess.User.Username,
		Email:     sess.User.Email,
		Role:      sess.User.Role,
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// bearerToken extracts the token from an `Authorization: Bearer` header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// classifyVerifyError maps a signature/claims failure to a rejection.
// Expiry is checked before the generic claim errors because jwt wraps
// both.
func classifyVerifyError(err error) *RejectError {
	switch {
	case errors.Is(err, errSigningKeyUnavailable):
		return rejectServerError()
	case errors.Is(err, jwt.ErrTokenExpired):
		return rejectTokenExpired()
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return rejectInvalidToken()
	default:
		return rejectServerError()
	}
}
