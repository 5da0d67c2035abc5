package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType is the `type` claim. It selects which table a bearer token
// is checked against.
type TokenType string

const (
	TokenTypeClientCredentials TokenType = "client_credentials"
	TokenTypeUserSession       TokenType = "user_session"
)

// Claims are the signed contents of an issued bearer token. Scope and
// Role are informational; authorization decisions use the stored row.
type Claims struct {
	Type      TokenType `json:"type"`
	Scope     string    `json:"scope,omitempty"`
	Role      string    `json:"role,omitempty"`
	SessionID string    `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// errSigningKeyUnavailable is returned when the signer has no secret.
// The middleware maps it to a server error, not a client error.
var errSigningKeyUnavailable = errors.New("signing key unavailable")

// Signer signs and verifies HS256 bearer tokens with one server secret.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSigner returns a Signer for secret. issuer is set on signed tokens
// and required on verified ones when non-empty. A nil now uses
// time.Now.
func NewSigner(secret []byte, issuer string, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}

	return &Signer{secret: secret, issuer: issuer, now: now}
}

// Sign returns the compact serialization of c.
func (s *Signer) Sign(c Claims) (string, error) {
	if len(s.secret) == 0 {
		return "", errSigningKeyUnavailable
	}

	if c.Issuer == "" {
		c.Issuer = s.issuer
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return token, nil
}

// Parse verifies raw and returns its claims. Only HS256 is accepted and
// an expiry is mandatory.
func (s *Signer) Parse(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		if len(s.secret) == 0 {
			return nil, errSigningKeyUnavailable
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &claims, nil
}
