package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// clearConfigEnv unsets all config env vars so tests start clean.
func clearConfigEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT",
		"LOG_LEVEL",
		"LISTEN_ADDR",
		"SERVER_URL",
		"DATABASE_PATH",
		"PENDING_STATE_PATH",
		"PENDING_AUTH_TTL",
		"CLEANUP_INTERVAL",
		"AUTH_REQUIRED",
		"AUTH_SIGNING_SECRET",
		"ACCESS_TOKEN_TTL",
		"SESSION_TTL",
		"AUTH_SEED_USERS",
		"AUTH_SEED_CLIENTS",
		"OAUTH_HTTP_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// setServerEnv sets the minimum env vars for the server.
func setServerEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AUTH_SIGNING_SECRET", testSecret)
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "authkit.db"))
	t.Setenv("PENDING_STATE_PATH", filepath.Join(dir, "pending.db"))
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.PendingAuthTTL)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoad_ServerURLTrailingSlash(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("SERVER_URL", "https://auth.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", cfg.ServerURL)
}

func TestLoad_InvalidServerURL(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("SERVER_URL", "auth.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_URL")
}

func TestLoad_MissingSigningSecret(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("AUTH_SIGNING_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SIGNING_SECRET")
}

func TestLoad_ShortSigningSecret(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("AUTH_SIGNING_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoad_AuthDisabledInDevelopment(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("AUTH_SIGNING_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AuthRequired)
}

func TestLoad_AuthDisabledRefusedInProduction(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_REQUIRED", "false")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "production")
}

func TestLoad_NonPositiveTTL(t *testing.T) {
	for _, key := range []string{"ACCESS_TOKEN_TTL", "SESSION_TTL", "CLEANUP_INTERVAL"} {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			setServerEnv(t)
			t.Setenv(key, "0s")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidSeedsFailValidation(t *testing.T) {
	clearConfigEnv(t)
	setServerEnv(t)
	t.Setenv("AUTH_SEED_USERS", "alice:pw:root")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestLoadClient_IgnoresServerSettings(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	t.Setenv("PENDING_STATE_PATH", filepath.Join(dir, "pending.db"))
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "authkit.db"))

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pending.db"), cfg.PendingStatePath)
	assert.Empty(t, cfg.SigningSecret)
}

func TestLoadClient_DefaultPaths(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadClient()
	require.NoError(t, err)

	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "authkit.db"), cfg.DatabasePath)
	assert.Equal(t, filepath.Join(dir, "pending.db"), cfg.PendingStatePath)
	assert.True(t, strings.HasSuffix(dir, ".authkit"))
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}

// --- Seeds ---

func TestParseSeedUsers_Valid(t *testing.T) {
	cfg := &Config{SeedUsers: "alice:pw1:admin:alice@example.com, bob:pw2:user"}

	users, err := cfg.ParseSeedUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, SeedUser{Username: "alice", Password: "pw1", Role: "admin", Email: "alice@example.com"}, users[0])
	assert.Equal(t, SeedUser{Username: "bob", Password: "pw2", Role: "user"}, users[1])
}

func TestParseSeedUsers_NormalizesUsernames(t *testing.T) {
	cfg := &Config{SeedUsers: "cafe\u0301:pw:user"}

	users, err := cfg.ParseSeedUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "caf\u00e9", users[0].Username)
}

func TestParseSeedUsers_Empty(t *testing.T) {
	users, err := (&Config{}).ParseSeedUsers()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestParseSeedUsers_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"missing role", "alice:pw", "invalid seed user entry"},
		{"too many fields", "alice:pw:user:a@b:extra", "invalid seed user entry"},
		{"empty username", ":pw:user", "empty username"},
		{"empty password", "alice::user", "empty username or password"},
		{"unknown role", "alice:pw:root", "unknown role"},
		{"duplicate", "alice:pw:user,alice:pw2:admin", "duplicate username"},
		{"duplicate after trimming", "alice:pw:user,\talice :pw2:admin", "duplicate username"},
		{"duplicate after NFC", "caf\u00e9:pw:user,cafe\u0301:pw2:user", "duplicate username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Config{SeedUsers: tt.value}).ParseSeedUsers()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseSeedClients_Valid(t *testing.T) {
	cfg := &Config{SeedClients: "reporter:0123456789abcdef:read profile,ingest:fedcba9876543210"}

	clients, err := cfg.ParseSeedClients()
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "reporter", clients[0].ClientID)
	assert.Equal(t, []string{"read", "profile"}, clients[0].Scopes)
	assert.Equal(t, "ingest", clients[1].ClientID)
	assert.Empty(t, clients[1].Scopes)
}

func TestParseSeedClients_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"missing colon", "reporter", "missing ':'"},
		{"empty secret", "reporter:", "empty client_id or secret"},
		{"short secret", "reporter:short", "too short"},
		{"duplicate", "a:0123456789abcdef,a:0123456789abcdef", "duplicate client_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Config{SeedClients: tt.value}).ParseSeedClients()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
