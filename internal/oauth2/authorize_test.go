package oauth2

import (
	"net/url"
	"testing"

	autherrors "github.com/alexjbarnes/authkit/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, raw string) (*url.URL, url.Values) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u, u.Query()
}

func TestBuildAuthorizationURL_Basic(t *testing.T) {
	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
		RedirectURI:  "http://localhost:3000/callback",
		Scopes:       "read write",
		State:        "xyz",
	})
	require.NoError(t, err)

	u, q := parseQuery(t, raw)
	assert.Equal(t, "as.example.com", u.Host)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "read write", q.Get("scope"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.False(t, q.Has("code_challenge"))
}

func TestBuildAuthorizationURL_OmitsEmptyOptionals(t *testing.T) {
	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	assert.False(t, q.Has("redirect_uri"))
	assert.False(t, q.Has("scope"))
	assert.False(t, q.Has("state"))
}

func TestBuildAuthorizationURL_PKCERoundTrip(t *testing.T) {
	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)

	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
		PKCE:         &PKCE{CodeVerifier: verifier, Method: CodeChallengeMethodS256},
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	want, err := GenerateCodeChallenge(verifier, CodeChallengeMethodS256)
	require.NoError(t, err)

	assert.Equal(t, want, q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotContains(t, raw, verifier, "the verifier must never appear in the redirect")
}

func TestBuildAuthorizationURL_PKCEDefaultMethod(t *testing.T) {
	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
		PKCE:         &PKCE{CodeVerifier: "abc"},
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestBuildAuthorizationURL_PKCEPlain(t *testing.T) {
	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
		PKCE:         &PKCE{CodeVerifier: "plain-verifier", Method: CodeChallengeMethodPlain},
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	assert.Equal(t, "plain-verifier", q.Get("code_challenge"))
	assert.Equal(t, "plain", q.Get("code_challenge_method"))
}

func TestBuildAuthorizationURL_PKCEUnsupportedMethod(t *testing.T) {
	_, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
		PKCE:         &PKCE{CodeVerifier: "v", Method: "S1"},
	})
	assert.ErrorIs(t, err, autherrors.ErrUnsupportedMethod)
}

func TestBuildAuthorizationURL_MissingRequired(t *testing.T) {
	_, err := BuildAuthorizationURL(AuthorizationRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, autherrors.ErrMissingRequired)

	var mr *MissingRequiredError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, []string{"auth_endpoint", "client_id"}, mr.Params)
}

func TestBuildAuthorizationURL_KeepsEndpointQuery(t *testing.T) {
	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize?tenant=acme",
		ClientID:     "client-1",
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	assert.Equal(t, "acme", q.Get("tenant"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestBuildAuthorizationURL_AdditionalParams(t *testing.T) {
	raw, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "client-1",
		AdditionalParams: []Param{
			{Key: "audience", Value: "first", Active: true},
			{Key: "prompt", Value: "consent", Active: false},
			{Key: "", Value: "nokey", Active: true},
			{Key: "empty", Value: "", Active: true},
			{Key: "audience", Value: "second", Active: true},
		},
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	assert.Equal(t, []string{"second"}, q["audience"], "last write wins")
	assert.False(t, q.Has("prompt"))
	assert.False(t, q.Has("empty"))
}

func TestBuildImplicitFlowURL(t *testing.T) {
	raw, err := BuildImplicitFlowURL(ImplicitRequest{
		AuthEndpoint: "https://as.example.com/authorize",
		ClientID:     "spa",
		RedirectURI:  "https://app.example.com/cb",
		Scopes:       "openid",
		State:        "s1",
		AdditionalParams: []Param{
			{Key: "nonce", Value: "n-1", Active: true},
		},
	})
	require.NoError(t, err)

	_, q := parseQuery(t, raw)
	assert.Equal(t, "token", q.Get("response_type"))
	assert.Equal(t, "spa", q.Get("client_id"))
	assert.Equal(t, "n-1", q.Get("nonce"))
	assert.False(t, q.Has("code_challenge"))
}

func TestBuildImplicitFlowURL_MissingClientID(t *testing.T) {
	_, err := BuildImplicitFlowURL(ImplicitRequest{AuthEndpoint: "https://as.example.com/authorize"})

	var mr *MissingRequiredError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, []string{"client_id"}, mr.Params)
}
