package models

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Roles, in ascending order of privilege.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is a human account that can hold sessions.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a persisted user session joined to its user row on lookup.
type Session struct {
	ID           string    `json:"id"`
	TokenHash    string    `json:"-"`
	UserID       string    `json:"user_id"`
	IsRevoked    bool      `json:"is_revoked"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessed time.Time `json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`

	User User `json:"user"`
}

// NormalizeUsername trims and NFC-normalizes a username so visually
// identical names compare equal.
func NormalizeUsername(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
