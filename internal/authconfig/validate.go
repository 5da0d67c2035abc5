package authconfig

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/alexjbarnes/authkit/internal/oauth2"
)

// Result is the outcome of Validate. Errors block use; warnings do not.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Type     AuthType `json:"type"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type collector struct {
	errors   []string
	warnings []string
}

func (c *collector) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *collector) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Validate checks cfg without touching the network. URLs are checked
// syntactically only.
func Validate(cfg *Config) Result {
	typ := cfg.effectiveType()
	c := &collector{}

	switch typ {
	case TypeNone:
	case TypeBasic:
		validateBasic(c, cfg.Basic)
	case TypeOAuth2:
		validateOAuth2(c, cfg.OAuth2)
	default:
		c.errorf("Unknown auth type: %q", string(typ))
	}

	res := Result{
		IsValid:  len(c.errors) == 0,
		Type:     typ,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}

	return res
}

func validateBasic(c *collector, b *BasicConfig) {
	if b == nil {
		b = &BasicConfig{}
	}

	if b.Username == "" && b.Password == "" {
		c.errorf("Username or password is required for basic auth")
		return
	}

	if b.Username == "" {
		c.warnf("Basic auth username is empty")
	}
	if b.Password == "" {
		c.warnf("Basic auth password is empty")
	}
	if strings.Contains(b.Username, ":") {
		c.warnf("Basic auth username contains ':', which is ambiguous once credentials are colon-joined")
	}
}

func validateOAuth2(c *collector, o *OAuth2Config) {
	if o == nil {
		c.errorf("OAuth2 configuration is required")
		return
	}

	if o.ClientID == "" {
		c.errorf("Client ID is required")
	}

	switch o.GrantType {
	case GrantAuthorizationCode:
		requireURL(c, "Authorization endpoint", o.AuthEndpoint)
		requireURL(c, "Token endpoint", o.TokenEndpoint)

		if o.RedirectURI == "" {
			c.warnf("Redirect URI is recommended for the authorization code flow")
		}
		if o.ClientSecret == "" && !o.IsPKCE {
			c.warnf("Neither a client secret nor PKCE is configured; enable PKCE for public clients")
		}
		if o.IsPKCE {
			validateChallengeMethod(c, o.CodeChallengeMethod)
		}

	case GrantClientCredentials:
		requireURL(c, "Token endpoint", o.TokenEndpoint)

		if o.ClientSecret == "" {
			c.errorf("Client secret is required for the client credentials flow")
		}
		if o.Scopes == "" {
			c.warnf("No scopes specified; the server will apply its default scopes")
		}

	case GrantPassword:
		requireURL(c, "Token endpoint", o.TokenEndpoint)

		if o.Username == "" {
			c.errorf("Username is required for the password flow")
		}
		if o.Password == "" {
			c.errorf("Password is required for the password flow")
		}
		c.warnf("The password grant is deprecated; prefer authorization code with PKCE")

	case GrantImplicit:
		requireURL(c, "Authorization endpoint", o.AuthEndpoint)

		if o.RedirectURI == "" {
			c.warnf("Redirect URI is recommended for the implicit flow")
		}
		c.warnf("The implicit grant is deprecated; prefer authorization code with PKCE")

	case "":
		c.errorf("Grant type is required")

	default:
		c.errorf("Unsupported grant type: %q", string(o.GrantType))
	}
}

// requireURL records an error when raw is empty or not an absolute URL.
func requireURL(c *collector, name, raw string) {
	if raw == "" {
		c.errorf("%s is required", name)
		return
	}
	if !isAbsoluteURL(raw) {
		c.errorf("%s must be a valid absolute URL", name)
	}
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.Scheme != "" && u.Host != ""
}

func validateChallengeMethod(c *collector, method string) {
	switch oauth2.CodeChallengeMethod(method) {
	case "", oauth2.CodeChallengeMethodS256, oauth2.CodeChallengeMethodPlain:
	default:
		c.errorf("Unsupported code challenge method: %q (use S256 or plain)", method)
	}
}
