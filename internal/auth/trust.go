package auth

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Trust is the verified identity behind a request. It is either an
// *OAuth2Trust or a *UserSessionTrust; the unexported method keeps
// other packages from adding variants.
type Trust interface {
	Kind() TokenType
	Subject() string
	isTrust()
}

// OAuth2Trust is a machine client authenticated with a
// client_credentials token.
type OAuth2Trust struct {
	TokenID    string    `json:"token_id"`
	ClientID   string    `json:"client_id"`
	ClientName string    `json:"client_name,omitempty"`
	Scopes     []string  `json:"scopes"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (t *OAuth2Trust) Kind() TokenType { return TokenTypeClientCredentials }
func (t *OAuth2Trust) Subject() string { return t.ClientID }
func (t *OAuth2Trust) isTrust() {}

// UserSessionTrust is a human user authenticated with a session token.
type UserSessionTrust struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t *UserSessionTrust) Kind() TokenType { return TokenTypeUserSession }
func (t *UserSessionTrust) Subject() string { return t.UserID }
func (t *UserSessionTrust) isTrust() {}

type contextKey int

const (
	ctxTrust contextKey = iota
	ctxRemoteIP
)

func withTrust(ctx context.Context, t Trust) context.Context {
	return context.WithValue(ctx, ctxTrust, t)
}

// TrustFromContext returns the request's trust record, or nil when the
// request is anonymous or auth is disabled.
func TrustFromContext(ctx context.Context) Trust {
	t, _ := ctx.Value(ctxTrust).(Trust)
	return t
}

// RequestUserID returns the authenticated user ID from the context, or "".
func RequestUserID(ctx context.Context) string {
	if t, ok := TrustFromContext(ctx).(*UserSessionTrust); ok {
		return t.UserID
	}
	return ""
}

// RequestClientID returns the OAuth client ID from the context, or "".
func RequestClientID(ctx context.Context) string {
	if t, ok := TrustFromContext(ctx).(*OAuth2Trust); ok {
		return t.ClientID
	}
	return ""
}

func withRemoteIP(r *http.Request) context.Context {
	return context.WithValue(r.Context(), ctxRemoteIP, remoteIP(r))
}

// RequestRemoteIP returns the client IP from the context, or "".
func RequestRemoteIP(ctx context.Context) string {
	v, _ := ctx.Value(ctxRemoteIP).(string)
	return v
}

// remoteIP extracts the IP address from r.RemoteAddr, stripping the
// port. Falls back to the raw value if parsing fails.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
