package oauth2

import (
	"fmt"
	"strings"

	autherrors "github.com/alexjbarnes/authkit/internal/errors"
	"github.com/tidwall/gjson"
)

// MissingRequiredError reports parameters a flow needs but did not get.
// It is returned before any network call is made.
type MissingRequiredError struct {
	Flow   string
	Params []string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("%s: missing required parameter(s): %s", e.Flow, strings.Join(e.Params, ", "))
}

func (e *MissingRequiredError) Unwrap() error {
	return autherrors.ErrMissingRequired
}

// required returns a MissingRequiredError naming every empty value, or nil.
func required(flow string, pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return &MissingRequiredError{Flow: flow, Params: missing}
}

// TokenRequestError is a non-2xx answer from a token endpoint. Body is
// the raw response text.
type TokenRequestError struct {
	Status int
	Body   string
	OAuth  OAuthError
}

func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("token request failed with status %d: %s", e.Status, e.Body)
}

func (e *TokenRequestError) Unwrap() error {
	return autherrors.ErrTokenRequestFailed
}

// OAuthError is the RFC 6749 section 5.2 error body.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`
}

func (e OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// unknownErrorCode is reported for JSON error bodies without an error member.
const unknownErrorCode = "unknown_error"

// ParseOAuthError reads an OAuth error body. Anything that is not a JSON
// object comes back as a parse_error carrying the raw text; an object
// without an error member comes back as unknown_error.
func ParseOAuthError(raw string) OAuthError {
	if !gjson.Valid(raw) {
		return OAuthError{Code: "parse_error", Description: raw}
	}

	res := gjson.Parse(raw)
	if !res.IsObject() {
		return OAuthError{Code: "parse_error", Description: raw}
	}

	e := OAuthError{
		Code:        res.Get("error").String(),
		Description: res.Get("error_description").String(),
		URI:         res.Get("error_uri").String(),
	}
	if e.Code == "" {
		e.Code = unknownErrorCode
	}

	return e
}
