package authconfig

import "github.com/alexjbarnes/authkit/internal/oauth2"

// ChallengeMethod returns the configured PKCE method, S256 when unset.
func (o *OAuth2Config) ChallengeMethod() oauth2.CodeChallengeMethod {
	if o.CodeChallengeMethod == "" {
		return oauth2.CodeChallengeMethodS256
	}

	return oauth2.CodeChallengeMethod(o.CodeChallengeMethod)
}

// AuthorizationRequest builds the authorization code redirect request.
// verifier is only used when PKCE is enabled.
func (o *OAuth2Config) AuthorizationRequest(state, verifier string) oauth2.AuthorizationRequest {
	req := oauth2.AuthorizationRequest{
		AuthEndpoint:     o.AuthEndpoint,
		ClientID:         o.ClientID,
		RedirectURI:      o.RedirectURI,
		Scopes:           o.Scopes,
		State:            state,
		AdditionalParams: o.AdditionalParams,
	}
	if o.IsPKCE {
		req.PKCE = &oauth2.PKCE{CodeVerifier: verifier, Method: o.ChallengeMethod()}
	}

	return req
}

// ImplicitRequest builds the implicit grant redirect request.
func (o *OAuth2Config) ImplicitRequest(state string) oauth2.ImplicitRequest {
	return oauth2.ImplicitRequest{
		AuthEndpoint:     o.AuthEndpoint,
		ClientID:         o.ClientID,
		RedirectURI:      o.RedirectURI,
		Scopes:           o.Scopes,
		State:            state,
		AdditionalParams: o.AdditionalParams,
	}
}

// CodeExchangeRequest builds the code redemption request.
func (o *OAuth2Config) CodeExchangeRequest(code, verifier string) oauth2.CodeExchangeRequest {
	return oauth2.CodeExchangeRequest{
		TokenEndpoint:    o.TokenEndpoint,
		ClientID:         o.ClientID,
		ClientSecret:     o.ClientSecret,
		Code:             code,
		RedirectURI:      o.RedirectURI,
		CodeVerifier:     verifier,
		AdditionalParams: o.AdditionalParams,
	}
}

// ClientCredentialsRequest builds the client credentials request.
func (o *OAuth2Config) ClientCredentialsRequest() oauth2.ClientCredentialsRequest {
	return oauth2.ClientCredentialsRequest{
		TokenEndpoint:    o.TokenEndpoint,
		ClientID:         o.ClientID,
		ClientSecret:     o.ClientSecret,
		Scopes:           o.Scopes,
		AuthMode:         oauth2.ClientAuthMode(o.ClientAuthentication),
		AdditionalParams: o.AdditionalParams,
	}
}

// PasswordRequest builds the password grant request.
func (o *OAuth2Config) PasswordRequest() oauth2.PasswordRequest {
	return oauth2.PasswordRequest{
		TokenEndpoint:    o.TokenEndpoint,
		ClientID:         o.ClientID,
		ClientSecret:     o.ClientSecret,
		Username:         o.Username,
		Password:         o.Password,
		Scopes:           o.Scopes,
		AdditionalParams: o.AdditionalParams,
	}
}

// RefreshRequest builds the refresh token request.
func (o *OAuth2Config) RefreshRequest(refreshToken string) oauth2.RefreshRequest {
	return oauth2.RefreshRequest{
		TokenEndpoint:    o.TokenEndpoint,
		ClientID:         o.ClientID,
		ClientSecret:     o.ClientSecret,
		RefreshToken:     refreshToken,
		Scopes:           o.Scopes,
		AdditionalParams: o.AdditionalParams,
	}
}
