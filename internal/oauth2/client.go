// Package oauth2 is the client side of OAuth 2.0: PKCE primitives,
// authorization URL construction and token endpoint exchanges for the
// authorization code, client credentials, password and refresh token
// grants. No flow retries on its own; every network call honours the
// caller's context.
package oauth2

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ClientAuthMode selects how client_credentials authenticates the client.
type ClientAuthMode string

const (
	// ClientAuthBasicHeader sends id and secret in an Authorization: Basic
	// header. Any other value sends them as form fields.
	ClientAuthBasicHeader ClientAuthMode = "AS_BASIC_AUTH_HEADERS"
	ClientAuthInBody      ClientAuthMode = "IN_BODY"
)

// maxTokenResponseBytes caps how much of a token endpoint response is read.
const maxTokenResponseBytes = 1 << 20

// TokenResponse is the token endpoint's JSON object, returned verbatim.
type TokenResponse map[string]any

// AccessToken returns the access_token member, or "".
func (t TokenResponse) AccessToken() string {
	return t.str("access_token")
}

// RefreshToken returns the refresh_token member, or "".
func (t TokenResponse) RefreshToken() string {
	return t.str("refresh_token")
}

// TokenType returns the token_type member, or "".
func (t TokenResponse) TokenType() string {
	return t.str("token_type")
}

func (t TokenResponse) str(key string) string {
	s, _ := t[key].(string)
	return s
}

// CodeExchangeRequest redeems an authorization code.
type CodeExchangeRequest struct {
	TokenEndpoint    string
	ClientID         string
	ClientSecret     string
	Code             string
	RedirectURI      string
	CodeVerifier     string
	AdditionalParams []Param
}

// ClientCredentialsRequest asks for a machine-to-machine token.
type ClientCredentialsRequest struct {
	TokenEndpoint    string
	ClientID         string
	ClientSecret     string
	Scopes           string
	AuthMode         ClientAuthMode
	AdditionalParams []Param
}

// PasswordRequest is the resource owner password grant.
type PasswordRequest struct {
	TokenEndpoint    string
	ClientID         string
	ClientSecret     string
	Username         string
	Password         string
	Scopes           string
	AdditionalParams []Param
}

// RefreshRequest trades a refresh token for a new access token.
type RefreshRequest struct {
	TokenEndpoint    string
	ClientID         string
	ClientSecret     string
	RefreshToken     string
	Scopes           string
	AdditionalParams []Param
}

// Client talks to remote token endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a flow client with the given http.Client.
// If httpClient is nil, http.DefaultClient is used.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// ExchangeCodeForToken redeems an authorization code. The PKCE verifier
// is sent when present; the challenge never is.
func (c *Client) ExchangeCodeForToken(ctx context.Context, req CodeExchangeRequest) (TokenResponse, error) {
	if err := required("authorization code exchange",
		"token_endpoint", req.TokenEndpoint,
		"client_id", req.ClientID,
		"code", req.Code,
	); err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {req.Code},
		"client_id":  {req.ClientID},
	}
	setIf(form, "redirect_uri", req.RedirectURI)
	setIf(form, "code_verifier", req.CodeVerifier)
	setIf(form, "client_secret", req.ClientSecret)
	applyParams(form, req.AdditionalParams)

	return c.postForm(ctx, req.TokenEndpoint, form, nil)
}

// ClientCredentials runs the client credentials grant.
func (c *Client) ClientCredentials(ctx context.Context, req ClientCredentialsRequest) (TokenResponse, error) {
	if err := required("client credentials",
		"token_endpoint", req.TokenEndpoint,
		"client_id", req.ClientID,
	); err != nil {
		return nil, err
	}

	form := url.Values{"grant_type": {"client_credentials"}}

	var header http.Header
	if req.AuthMode == ClientAuthBasicHeader {
		header = http.Header{"Authorization": {BasicAuthorization(req.ClientID, req.ClientSecret)}}
	} else {
		form.Set("client_id", req.ClientID)
		setIf(form, "client_secret", req.ClientSecret)
	}
	setIf(form, "scope", req.Scopes)
	applyParams(form, req.AdditionalParams)

	return c.postForm(ctx, req.TokenEndpoint, form, header)
}

// Password runs the resource owner password grant.
func (c *Client) Password(ctx context.Context, req PasswordRequest) (TokenResponse, error) {
	if err := required("password",
		"token_endpoint", req.TokenEndpoint,
		"client_id", req.ClientID,
		"username", req.Username,
		"password", req.Password,
	); err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {req.Username},
		"password":   {req.Password},
		"client_id":  {req.ClientID},
	}
	setIf(form, "client_secret", req.ClientSecret)
	setIf(form, "scope", req.Scopes)
	applyParams(form, req.AdditionalParams)

	return c.postForm(ctx, req.TokenEndpoint, form, nil)
}

// Refresh runs the refresh token grant.
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) (TokenResponse, error) {
	if err := required("refresh token",
		"token_endpoint", req.TokenEndpoint,
		"client_id", req.ClientID,
		"refresh_token", req.RefreshToken,
	); err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {req.RefreshToken},
		"client_id":     {req.ClientID},
	}
	setIf(form, "client_secret", req.ClientSecret)
	setIf(form, "scope", req.Scopes)
	applyParams(form, req.AdditionalParams)

	return c.postForm(ctx, req.TokenEndpoint, form, nil)
}

// BasicAuthorization builds the client_secret_basic header value. Id and
// secret are form-encoded first (RFC 6749 section 2.3.1), so a space
// becomes "+".
func BasicAuthorization(clientID, clientSecret string) string {
	raw := url.QueryEscape(clientID) + ":" + url.QueryEscape(clientSecret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// postForm sends a form-encoded POST and decodes the JSON response.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, header http.Header) (TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenRequestError{
			Status: resp.StatusCode,
			Body:   string(body),
			OAuth:  ParseOAuthError(string(body)),
		}
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}
	if tok == nil {
		return nil, fmt.Errorf("decoding response from %s: expected a JSON object", endpoint)
	}

	return tok, nil
}
