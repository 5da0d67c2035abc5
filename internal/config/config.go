// Package config loads authkit's environment-based configuration.
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// signingSecretMinLen is the minimum HS256 secret length in bytes.
	signingSecretMinLen = 32

	// clientSecretMinLen is the minimum length for seeded client secrets.
	clientSecretMinLen = 16
)

// Config holds all environment-based configuration for authkit.
type Config struct {
	// Environment controls log format and production safety checks.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL"`

	// HTTP server
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	ServerURL  string `env:"SERVER_URL"`

	// Storage. Empty paths default to ~/.authkit/.
	DatabasePath     string        `env:"DATABASE_PATH"`
	PendingStatePath string        `env:"PENDING_STATE_PATH"`
	PendingAuthTTL   time.Duration `env:"PENDING_AUTH_TTL" envDefault:"10m"`
	CleanupInterval  time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`

	// Trust boundary. AuthRequired=false is a development escape hatch
	// and is refused in production.
	AuthRequired   bool          `env:"AUTH_REQUIRED" envDefault:"true"`
	SigningSecret  string        `env:"AUTH_SIGNING_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Seed accounts applied at startup.
	// Users: "name:password:role[:email],..."; clients: "id:secret[:scope scope],..."
	SeedUsers   string `env:"AUTH_SEED_USERS"`
	SeedClients string `env:"AUTH_SEED_CLIENTS"`

	// Outbound token endpoint calls made by the client commands.
	HTTPTimeout time.Duration `env:"OAUTH_HTTP_TIMEOUT" envDefault:"30s"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing the signing secret to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

func parse() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DatabasePath == "" || cfg.PendingStatePath == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}

		if cfg.DatabasePath == "" {
			cfg.DatabasePath = filepath.Join(dir, "authkit.db")
		}
		if cfg.PendingStatePath == "" {
			cfg.PendingStatePath = filepath.Join(dir, "pending.db")
		}
	}

	return cfg, nil
}

// LoadClient reads configuration for the client-side commands. Server
// settings are parsed but not validated.
func LoadClient() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if cfg.PendingAuthTTL <= 0 {
		return nil, fmt.Errorf("validating config: PENDING_AUTH_TTL must be positive")
	}

	return cfg, nil
}

// Load reads and validates configuration for the server. A .env file
// is loaded first if present.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL(cfg.ListenAddr)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AuthRequired {
		if len(c.SigningSecret) < signingSecretMinLen {
			return fmt.Errorf("AUTH_SIGNING_SECRET must be at least %d bytes when AUTH_REQUIRED is true", signingSecretMinLen)
		}
	} else if c.IsProduction() {
		return fmt.Errorf("AUTH_REQUIRED=false is not allowed when ENVIRONMENT=production")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SERVER_URL must be an absolute URL")
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}

	if _, err := c.ParseSeedUsers(); err != nil {
		return err
	}

	if _, err := c.ParseSeedClients(); err != nil {
		return err
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultDataDir returns ~/.authkit.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	return filepath.Join(home, ".authkit"), nil
}

func defaultServerURL(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		return "http://localhost" + listenAddr
	}

	return "http://" + listenAddr
}

// SeedUser is a user account parsed from AUTH_SEED_USERS.
type SeedUser struct {
	Username string
	Password string
	Role     string
	Email    string
}

// ParseSeedUsers parses AUTH_SEED_USERS. Usernames come back
// normalized, and duplicates are detected after normalization.
// Format: "alice:password:admin:alice@example.com,bob:password:user"
func (c *Config) ParseSeedUsers() ([]SeedUser, error) {
	if c.SeedUsers == "" {
		return nil, nil
	}

	seen := make(map[string]struct{})

	var users []SeedUser

	for _, entry := range strings.Split(c.SeedUsers, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid seed user entry %d (want user:password:role[:email])", len(users)+1)
		}

		u := SeedUser{Username: models.NormalizeUsername(parts[0]), Password: parts[1], Role: parts[2]}
		if len(parts) == 4 {
			u.Email = parts[3]
		}

		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("empty username or password in seed user entry %d", len(users)+1)
		}

		switch u.Role {
		case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		default:
			return nil, fmt.Errorf("unknown role %q in seed user entry %d", u.Role, len(users)+1)
		}

		if _, dup := seen[u.Username]; dup {
			return nil, fmt.Errorf("duplicate username %q in AUTH_SEED_USERS", u.Username)
		}

		seen[u.Username] = struct{}{}
		users = append(users, u)
	}

	return users, nil
}

// SeedClient is a machine client parsed from AUTH_SEED_CLIENTS.
type SeedClient struct {
	ClientID string
	Secret   string
	Scopes   []string
}

// ParseSeedClients parses AUTH_SEED_CLIENTS.
// Format: "reporter:0123456789abcdef:read profile,ingest:fedcba9876543210"
// Secrets must be at least 16 characters long.
func (c *Config) ParseSeedClients() ([]SeedClient, error) {
	if c.SeedClients == "" {
		return nil, nil
	}

	seen := make(map[string]struct{})

	var clients []SeedClient

	for _, entry := range strings.Split(c.SeedClients, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid seed client entry (missing ':')")
		}

		sc := SeedClient{ClientID: parts[0], Secret: parts[1]}
		if len(parts) == 3 {
			sc.Scopes = strings.Fields(parts[2])
		}

		if sc.ClientID == "" || sc.Secret == "" {
			return nil, fmt.Errorf("empty client_id or secret in seed client entry %d", len(clients)+1)
		}

		if len(sc.Secret) < clientSecretMinLen {
			return nil, fmt.Errorf("client secret too short in seed client entry %d (minimum %d characters)", len(clients)+1, clientSecretMinLen)
		}

		if _, dup := seen[sc.ClientID]; dup {
			return nil, fmt.Errorf("duplicate client_id %q in AUTH_SEED_CLIENTS", sc.ClientID)
		}

		seen[sc.ClientID] = struct{}{}
		clients = append(clients, sc)
	}

	return clients, nil
}
