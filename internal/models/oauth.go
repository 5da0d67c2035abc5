// Package models defines types shared across internal packages.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Client is a registered machine-to-machine OAuth client.
type Client struct {
	ClientID   string    `json:"client_id"`
	ClientName string    `json:"client_name,omitempty"`
	SecretHash string    `json:"-"`
	Scopes     []string  `json:"scopes,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccessToken is a persisted client_credentials token. Only the hash of
// the bearer string is stored. ClientName and ClientActive are filled
// from the joined client row on lookup.
type AccessToken struct {
	ID           string    `json:"id"`
	TokenHash    string    `json:"-"`
	ClientID     string    `json:"client_id"`
	ClientName   string    `json:"client_name,omitempty"`
	ClientActive bool      `json:"client_active"`
	Scopes       []string  `json:"scopes,omitempty"`
	IsRevoked    bool      `json:"is_revoked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenHash returns the SHA-256 hex digest of a bearer string. This is
// the only form in which credentials are stored or compared.
func TokenHash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
