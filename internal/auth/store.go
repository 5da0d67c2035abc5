// Package auth is the inbound trust boundary: it issues and verifies
// bearer tokens, resolves them against the trust store on every request
// and gates handlers on scopes and roles.
package auth

import (
	"context"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
)

//go:generate mockgen -destination=mock_store_test.go -package=auth . TrustStore

// TrustStore is what the middleware needs from persistence. Lookups
// return nil, nil for unknown hashes and do not filter revoked or
// expired rows.
type TrustStore interface {
	LookupAccessToken(ctx context.Context, tokenHash string) (*models.AccessToken, error)
	LookupSession(ctx context.Context, tokenHash string) (*models.Session, error)
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
}

// Store is the full persistence surface used by the issuing and admin
// handlers.
type Store interface {
	TrustStore

	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	SetUserActive(ctx context.Context, id string, active bool) (bool, error)
	ClientByID(ctx context.Context, clientID string) (*models.Client, error)
	SetClientActive(ctx context.Context, clientID string, active bool) (bool, error)
	InsertAccessToken(ctx context.Context, t models.AccessToken) error
	RevokeAccessToken(ctx context.Context, tokenHash string) (bool, error)
	RevokeClientTokens(ctx context.Context, clientID string, now time.Time) (int64, error)
	InsertSession(ctx context.Context, s models.Session) error
	RevokeSession(ctx context.Context, sessionID string) (bool, error)
	RevokeUserSessions(ctx context.Context, userID string) (int64, error)
}
