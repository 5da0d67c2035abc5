// Package errors defines the sentinel errors shared by the flow engine,
// the config validator and the trust middleware. Typed errors in other
// packages wrap these so callers can branch with errors.Is.
package errors

import "errors"

// Client-side errors.
var (
	ErrConfigInvalid        = errors.New("auth config invalid")
	ErrMissingRequired      = errors.New("missing required parameter")
	ErrTokenRequestFailed   = errors.New("token request failed")
	ErrUnsupportedMethod    = errors.New("unsupported code challenge method")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
)

// Trust boundary errors. Each maps to one HTTP status and error code.
var (
	ErrUnauthorized      = errors.New("authentication required")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrInvalidSession    = errors.New("invalid session")
	ErrSessionExpired    = errors.New("session expired")
	ErrInsufficientScope = errors.New("insufficient scope")
	ErrInsufficientRole  = errors.New("insufficient role")
	ErrAccessDenied      = errors.New("access denied")
)

// Server errors.
var (
	ErrServerError = errors.New("internal server error")
)
