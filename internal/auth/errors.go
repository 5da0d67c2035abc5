package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	autherrors "github.com/alexjbarnes/authkit/internal/errors"
)

// Machine-readable rejection codes.
const (
	CodeUnauthorized      = "unauthorized"
	CodeInvalidToken      = "invalid_token"
	CodeTokenExpired      = "token_expired"
	CodeInvalidSession    = "invalid_session"
	CodeSessionExpired    = "session_expired"
	CodeInsufficientScope = "insufficient_scope"
	CodeInsufficientRole  = "insufficient_role"
	CodeAccessDenied      = "access_denied"
	CodeServerError       = "server_error"
)

// RejectError is a trust-boundary rejection: an HTTP status, a stable
// code and a caller-safe message. Details are merged into the JSON body.
type RejectError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	err error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RejectError) Unwrap() error {
	return e.err
}

func rejectUnauthorized() *RejectError {
	return &RejectError{
		Status:  http.StatusUnauthorized,
		Code:    CodeUnauthorized,
		Message: "Authentication required",
		err:     autherrors.ErrUnauthorized,
	}
}

func rejectInvalidToken() *RejectError {
	return &RejectError{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidToken,
		Message: "Invalid or revoked token",
		err:     autherrors.ErrInvalidToken,
	}
}

func rejectTokenExpired() *RejectError {
	return &RejectError{
		Status:  http.StatusUnauthorized,
		Code:    CodeTokenExpired,
		Message: "Token has expired",
		err:     autherrors.ErrTokenExpired,
	}
}

func rejectInvalidSession() *RejectError {
	return &RejectError{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidSession,
		Message: "Invalid or revoked session",
		err:     autherrors.ErrInvalidSession,
	}
}

func rejectSessionExpired() *RejectError {
	return &RejectError{
		Status:  http.StatusUnauthorized,
		Code:    CodeSessionExpired,
		Message: "Session has expired",
		err:     autherrors.ErrSessionExpired,
	}
}

func rejectServerError() *RejectError {
	return &RejectError{
		Status:  http.StatusInternalServerError,
		Code:    CodeServerError,
		Message: "Internal server error",
		err:     autherrors.ErrServerError,
	}
}

func rejectInsufficientScope(required string, granted []string) *RejectError {
	if granted == nil {
		granted = []string{}
	}

	return &RejectError{
		Status:  http.StatusForbidden,
		Code:    CodeInsufficientScope,
		Message: fmt.Sprintf("Scope %q is required", required),
		Details: map[string]any{
			"required_scope": required,
			"granted_scopes": granted,
		},
		err: autherrors.ErrInsufficientScope,
	}
}

func rejectInsufficientRole(required, current string) *RejectError {
	return &RejectError{
		Status:  http.StatusForbidden,
		Code:    CodeInsufficientRole,
		Message: fmt.Sprintf("Role %q is required", required),
		Details: map[string]any{
			"required_role": required,
			"current_role":  current,
		},
		err: autherrors.ErrInsufficientRole,
	}
}

func rejectAccessDenied() *RejectError {
	return &RejectError{
		Status:  http.StatusForbidden,
		Code:    CodeAccessDenied,
		Message: "Role checks require a user session",
		err:     autherrors.ErrAccessDenied,
	}
}

// wwwAuthenticate builds the RFC 6750 challenge for a 401. No error
// attribute is sent when no token was presented.
func wwwAuthenticate(rej *RejectError, metadataURL string) string {
	var parts []string

	if rej.Code != CodeUnauthorized {
		parts = append(parts, `error="invalid_token"`, fmt.Sprintf("error_description=%q", rej.Message))
	}
	if metadataURL != "" {
		parts = append(parts, fmt.Sprintf("resource_metadata=%q", metadataURL))
	}

	if len(parts) == 0 {
		return "Bearer"
	}

	return "Bearer " + strings.Join(parts, ", ")
}

// writeReject writes rej as the JSON rejection body.
func writeReject(w http.ResponseWriter, rej *RejectError, metadataURL string) {
	body := map[string]any{
		"error":   rej.Code,
		"message": rej.Message,
	}
	for k, v := range rej.Details {
		body[k] = v
	}

	if rej.Status == http.StatusUnauthorized {
		body["auth_required"] = true
		w.Header().Set("WWW-Authenticate", wwwAuthenticate(rej, metadataURL))
	}

	writeJSON(w, rej.Status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an RFC 6749 error body for token endpoint
// responses.
func writeJSONError(w http.ResponseWriter, status int, errCode, description string) {
	writeJSON(w, status, map[string]string{
		"error":             errCode,
		"error_description": description,
	})
}
