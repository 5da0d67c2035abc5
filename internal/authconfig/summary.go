package authconfig

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/alexjbarnes/authkit/internal/oauth2"
)

// Summary renders a one-line description of res. Errors win over
// warnings, warnings over success.
func Summary(res Result) string {
	switch {
	case len(res.Errors) > 0:
		s := fmt.Sprintf("Invalid %s configuration: %s", res.Type, res.Errors[0])
		if n := len(res.Errors) - 1; n > 0 {
			s += fmt.Sprintf(" (+%d more)", n)
		}
		return s
	case len(res.Warnings) > 0:
		return fmt.Sprintf("Valid %s configuration with %d warning(s): %s", res.Type, len(res.Warnings), res.Warnings[0])
	case res.Type == TypeNone:
		return "No authentication configured"
	default:
		return fmt.Sprintf("Valid %s configuration", res.Type)
	}
}

// IsReadyForUse reports whether res permits sending the request.
func IsReadyForUse(res Result) bool {
	return res.IsValid && len(res.Errors) == 0
}

// maxSuggestedScopes is the scope count above which minimization is
// suggested.
const maxSuggestedScopes = 3

// SecuritySuggestions returns advisory hints for cfg. They never affect
// validity.
func SecuritySuggestions(cfg *Config) []string {
	var out []string

	switch cfg.effectiveType() {
	case TypeBasic:
		out = append(out, "Basic auth sends reusable credentials with every request; only use it over HTTPS")

	case TypeOAuth2:
		o := cfg.OAuth2
		if o == nil {
			return nil
		}

		for _, ep := range []struct{ name, raw string }{
			{"authorization", o.AuthEndpoint},
			{"token", o.TokenEndpoint},
		} {
			if insecureEndpoint(ep.raw) {
				out = append(out, fmt.Sprintf("Use HTTPS for the %s endpoint", ep.name))
			}
		}

		scopes := strings.Fields(o.Scopes)
		if len(scopes) > maxSuggestedScopes {
			out = append(out, "Request only the scopes this request needs")
		}

		switch o.GrantType {
		case GrantAuthorizationCode:
			if !o.IsPKCE {
				out = append(out, "Enable PKCE to bind the authorization code to this client")
			} else if oauth2.CodeChallengeMethod(o.CodeChallengeMethod) == oauth2.CodeChallengeMethodPlain {
				out = append(out, "Use the S256 code challenge method instead of plain")
			}
		case GrantClientCredentials:
			if oauth2.ClientAuthMode(o.ClientAuthentication) != oauth2.ClientAuthBasicHeader {
				out = append(out, "Send client credentials in the Authorization header instead of the request body")
			}
		case GrantPassword:
			out = append(out, "Migrate from the password grant to authorization code with PKCE")
		case GrantImplicit:
			out = append(out, "Replace the implicit grant with authorization code and PKCE")
		}
	}

	return out
}

// insecureEndpoint reports plain-http endpoints that are not loopback.
func insecureEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return false
	}

	return true
}
