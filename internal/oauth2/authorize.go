package oauth2

import (
	"fmt"
	"net/url"
)

// PKCE requests a code challenge on an authorization URL. Method
// defaults to S256.
type PKCE struct {
	CodeVerifier string
	Method       CodeChallengeMethod
}

// AuthorizationRequest describes an authorization code redirect.
type AuthorizationRequest struct {
	AuthEndpoint     string
	ClientID         string
	RedirectURI      string
	Scopes           string
	State            string
	PKCE             *PKCE
	AdditionalParams []Param
}

// ImplicitRequest describes an implicit grant redirect. The token comes
// back in the redirect fragment; there is no token endpoint step.
type ImplicitRequest struct {
	AuthEndpoint     string
	ClientID         string
	RedirectURI      string
	Scopes           string
	State            string
	AdditionalParams []Param
}

// BuildAuthorizationURL returns the authorization endpoint URL for the
// authorization code grant, with a PKCE challenge when requested.
func BuildAuthorizationURL(req AuthorizationRequest) (string, error) {
	if err := required("authorization code",
		"auth_endpoint", req.AuthEndpoint,
		"client_id", req.ClientID,
	); err != nil {
		return "", err
	}

	var pkce url.Values
	if req.PKCE != nil {
		if err := required("authorization code", "code_verifier", req.PKCE.CodeVerifier); err != nil {
			return "", err
		}

		method := req.PKCE.Method
		if method == "" {
			method = CodeChallengeMethodS256
		}

		challenge, err := GenerateCodeChallenge(req.PKCE.CodeVerifier, method)
		if err != nil {
			return "", err
		}

		pkce = url.Values{
			"code_challenge":        {challenge},
			"code_challenge_method": {string(method)},
		}
	}

	return buildRedirectURL(req.AuthEndpoint, "code", req.ClientID, req.RedirectURI, req.Scopes, req.State, pkce, req.AdditionalParams)
}

// BuildImplicitFlowURL returns the authorization endpoint URL for the
// implicit grant.
func BuildImplicitFlowURL(req ImplicitRequest) (string, error) {
	if err := required("implicit",
		"auth_endpoint", req.AuthEndpoint,
		"client_id", req.ClientID,
	); err != nil {
		return "", err
	}

	return buildRedirectURL(req.AuthEndpoint, "token", req.ClientID, req.RedirectURI, req.Scopes, req.State, nil, req.AdditionalParams)
}

func buildRedirectURL(endpoint, responseType, clientID, redirectURI, scopes, state string, extra url.Values, params []Param) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing auth endpoint: %w", err)
	}

	// Keep any query the endpoint already carries.
	q := u.Query()
	q.Set("response_type", responseType)
	q.Set("client_id", clientID)
	setIf(q, "redirect_uri", redirectURI)
	setIf(q, "scope", scopes)
	setIf(q, "state", state)

	for k, vs := range extra {
		q[k] = vs
	}

	applyParams(q, params)

	u.RawQuery = q.Encode()

	return u.String(), nil
}
