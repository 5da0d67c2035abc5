package authconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexjbarnes/authkit/internal/oauth2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
auth_active: true
type: oauth2
oauth2:
  grant_type: authorization_code
  client_id: cli
  client_secret: sec
  auth_endpoint: https://as.example.com/authorize
  token_endpoint: https://as.example.com/token
  redirect_uri: https://app.example.com/cb
  scopes: read write
  pkce: true
  code_challenge_method: plain
  additional_params:
    - key: audience
      value: api
      active: true
    - key: prompt
      value: consent
      active: false
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.True(t, cfg.AuthActive)
	assert.Equal(t, TypeOAuth2, cfg.Type)
	require.NotNil(t, cfg.OAuth2)
	assert.Equal(t, GrantAuthorizationCode, cfg.OAuth2.GrantType)
	assert.Equal(t, "read write", cfg.OAuth2.Scopes)
	assert.True(t, cfg.OAuth2.IsPKCE)
	assert.Equal(t, []oauth2.Param{
		{Key: "audience", Value: "api", Active: true},
		{Key: "prompt", Value: "consent", Active: false},
	}, cfg.OAuth2.AdditionalParams)
	assert.True(t, Validate(cfg).IsValid)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("auth_active: [unterminated"))
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRequestMapping(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	o := cfg.OAuth2

	authReq := o.AuthorizationRequest("st", "ver")
	require.NotNil(t, authReq.PKCE)
	assert.Equal(t, oauth2.CodeChallengeMethodPlain, authReq.PKCE.Method)
	assert.Equal(t, "ver", authReq.PKCE.CodeVerifier)
	assert.Equal(t, "st", authReq.State)

	o.IsPKCE = false
	assert.Nil(t, o.AuthorizationRequest("st", "ver").PKCE)

	o.CodeChallengeMethod = ""
	assert.Equal(t, oauth2.CodeChallengeMethodS256, o.ChallengeMethod())

	ex := o.CodeExchangeRequest("code", "ver")
	assert.Equal(t, "https://as.example.com/token", ex.TokenEndpoint)
	assert.Equal(t, "sec", ex.ClientSecret)
	assert.Equal(t, "ver", ex.CodeVerifier)

	o.ClientAuthentication = "AS_BASIC_AUTH_HEADERS"
	assert.Equal(t, oauth2.ClientAuthBasicHeader, o.ClientCredentialsRequest().AuthMode)

	assert.Equal(t, "rt", o.RefreshRequest("rt").RefreshToken)
	assert.Equal(t, "st", o.ImplicitRequest("st").State)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan Result, 16)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, path, func(_ *Config, res Result, err error) {
			if err == nil {
				results <- res
			}
		})
	}()

	select {
	case res := <-results:
		assert.True(t, res.IsValid)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial report")
	}

	require.NoError(t, os.WriteFile(path, []byte("auth_active: true\ntype: oauth2\n"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-results:
			if !res.IsValid {
				cancel()
				assert.ErrorIs(t, <-done, context.Canceled)
				return
			}
		case <-deadline:
			t.Fatal("change not reported")
		}
	}
}
