package authconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "none",
			res:  Result{IsValid: true, Type: TypeNone},
			want: "No authentication configured",
		},
		{
			name: "valid",
			res:  Result{IsValid: true, Type: TypeOAuth2},
			want: "Valid oauth2 configuration",
		},
		{
			name: "warnings",
			res:  Result{IsValid: true, Type: TypeBasic, Warnings: []string{"w1", "w2"}},
			want: "Valid basic configuration with 2 warning(s): w1",
		},
		{
			name: "errors win over warnings",
			res:  Result{Type: TypeOAuth2, Errors: []string{"e1", "e2", "e3"}, Warnings: []string{"w"}},
			want: "Invalid oauth2 configuration: e1 (+2 more)",
		},
		{
			name: "single error",
			res:  Result{Type: TypeOAuth2, Errors: []string{"e1"}},
			want: "Invalid oauth2 configuration: e1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.res))
		})
	}
}

func TestIsReadyForUse(t *testing.T) {
	assert.True(t, IsReadyForUse(Result{IsValid: true}))
	assert.True(t, IsReadyForUse(Result{IsValid: true, Warnings: []string{"w"}}))
	assert.False(t, IsReadyForUse(Result{IsValid: false}))
	assert.False(t, IsReadyForUse(Result{IsValid: true, Errors: []string{"e"}}))
}

func TestSecuritySuggestions(t *testing.T) {
	assert.Empty(t, SecuritySuggestions(nil))
	assert.Empty(t, SecuritySuggestions(&Config{AuthActive: false, Type: TypeBasic}))
	assert.Len(t, SecuritySuggestions(&Config{AuthActive: true, Type: TypeBasic}), 1)
	assert.Empty(t, SecuritySuggestions(&Config{AuthActive: true, Type: TypeOAuth2}))

	t.Run("authorization code without PKCE", func(t *testing.T) {
		o := validAuthCode()
		o.IsPKCE = false
		got := SecuritySuggestions(oauthConfig(o))
		assert.Contains(t, got, "Enable PKCE to bind the authorization code to this client")
	})

	t.Run("plain PKCE", func(t *testing.T) {
		o := validAuthCode()
		o.CodeChallengeMethod = "plain"
		got := SecuritySuggestions(oauthConfig(o))
		assert.Contains(t, got, "Use the S256 code challenge method instead of plain")
	})

	t.Run("clean authorization code", func(t *testing.T) {
		assert.Empty(t, SecuritySuggestions(oauthConfig(validAuthCode())))
	})

	t.Run("http endpoints", func(t *testing.T) {
		o := validAuthCode()
		o.AuthEndpoint = "http://as.example.com/authorize"
		o.TokenEndpoint = "http://localhost:8080/token"
		got := SecuritySuggestions(oauthConfig(o))
		assert.Equal(t, []string{"Use HTTPS for the authorization endpoint"}, got)
	})

	t.Run("many scopes", func(t *testing.T) {
		o := validAuthCode()
		o.Scopes = "a b c d"
		assert.Contains(t, SecuritySuggestions(oauthConfig(o)), "Request only the scopes this request needs")
	})

	t.Run("client credentials in body", func(t *testing.T) {
		o := OAuth2Config{GrantType: GrantClientCredentials, ClientAuthentication: "IN_BODY"}
		assert.Len(t, SecuritySuggestions(oauthConfig(o)), 1)

		o.ClientAuthentication = "AS_BASIC_AUTH_HEADERS"
		assert.Empty(t, SecuritySuggestions(oauthConfig(o)))
	})

	t.Run("legacy grants", func(t *testing.T) {
		assert.Len(t, SecuritySuggestions(oauthConfig(OAuth2Config{GrantType: GrantPassword})), 1)
		assert.Len(t, SecuritySuggestions(oauthConfig(OAuth2Config{GrantType: GrantImplicit})), 1)
	})

	t.Run("does not affect validity", func(t *testing.T) {
		cfg := oauthConfig(OAuth2Config{
			GrantType:     GrantPassword,
			ClientID:      "cli",
			TokenEndpoint: "https://as.example.com/token",
			Username:      "u",
			Password:      "p",
		})
		assert.NotEmpty(t, SecuritySuggestions(cfg))
		assert.True(t, Validate(cfg).IsValid)
	})
}
