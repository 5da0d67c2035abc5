// Package authconfig models the declarative auth setup attached to a
// request and decides whether it is usable before anything touches the
// network.
package authconfig

import (
	"fmt"
	"os"

	"github.com/alexjbarnes/authkit/internal/oauth2"
	"gopkg.in/yaml.v3"
)

// AuthType selects the auth mechanism.
type AuthType string

const (
	TypeNone   AuthType = "none"
	TypeBasic  AuthType = "basic"
	TypeOAuth2 AuthType = "oauth2"
)

// GrantType is the OAuth2 grant an OAuth2Config runs.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
	GrantImplicit          GrantType = "implicit"
)

// Config is the auth section of a request. Only the block matching Type
// is read.
type Config struct {
	AuthActive bool          `yaml:"auth_active"`
	Type       AuthType      `yaml:"type"`
	Basic      *BasicConfig  `yaml:"basic,omitempty"`
	OAuth2     *OAuth2Config `yaml:"oauth2,omitempty"`
}

// BasicConfig holds HTTP Basic credentials.
type BasicConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// OAuth2Config holds everything any supported grant can need. Which
// fields are required depends on GrantType; Validate is the authority.
type OAuth2Config struct {
	GrantType            GrantType      `yaml:"grant_type"`
	ClientID             string         `yaml:"client_id"`
	ClientSecret         string         `yaml:"client_secret,omitempty"`
	AuthEndpoint         string         `yaml:"auth_endpoint,omitempty"`
	TokenEndpoint        string         `yaml:"token_endpoint,omitempty"`
	RedirectURI          string         `yaml:"redirect_uri,omitempty"`
	Scopes               string         `yaml:"scopes,omitempty"`
	IsPKCE               bool           `yaml:"pkce,omitempty"`
	CodeChallengeMethod  string         `yaml:"code_challenge_method,omitempty"`
	Username             string         `yaml:"username,omitempty"`
	Password             string         `yaml:"password,omitempty"`
	ClientAuthentication string         `yaml:"client_authentication,omitempty"`
	AdditionalParams     []oauth2.Param `yaml:"additional_params,omitempty"`
}

// Parse decodes a YAML auth config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}

	return &cfg, nil
}

// Load reads and decodes the YAML auth config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading auth config: %w", err)
	}

	return Parse(data)
}

// effectiveType collapses inactive or empty configs to TypeNone.
func (c *Config) effectiveType() AuthType {
	if c == nil || !c.AuthActive || c.Type == "" {
		return TypeNone
	}

	return c.Type
}
