package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
)

// UpsertClient inserts c, or updates the client with the same ID.
func (s *Store) UpsertClient(ctx context.Context, c models.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_clients (client_id, client_name, secret_hash, scopes, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id) DO UPDATE SET
			client_name = excluded.client_name,
			secret_hash = excluded.secret_hash,
			scopes = excluded.scopes,
			is_active = excluded.is_active`,
		c.ClientID, c.ClientName, c.SecretHash, joinScopes(c.Scopes), boolInt(c.IsActive), toMillis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting client: %w", err)
	}

	return nil
}

// ClientByID returns the client with the given ID, or nil if not found.
func (s *Store) ClientByID(ctx context.Context, clientID string) (*models.Client, error) {
	var (
		c         models.Client
		scopes    string
		active    int
		createdAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT client_id, client_name, secret_hash, scopes, is_active, created_at
		FROM oauth_clients WHERE client_id = ?`, clientID,
	).Scan(&c.ClientID, &c.ClientName, &c.SecretHash, &scopes, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up client: %w", err)
	}

	c.Scopes = splitScopes(scopes)
	c.IsActive = active != 0
	c.CreatedAt = fromMillis(createdAt)

	return &c, nil
}

// SetClientActive flips a client's active flag. It reports whether the
// client exists.
func (s *Store) SetClientActive(ctx context.Context, clientID string, active bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE oauth_clients SET is_active = ? WHERE client_id = ?`, boolInt(active), clientID)
	if err != nil {
		return false, fmt.Errorf("updating client: %w", err)
	}

	return affected(res)
}

// InsertAccessToken persists an issued client_credentials token.
func (s *Store) InsertAccessToken(ctx context.Context, t models.AccessToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_tokens (id, token_hash, client_id, scopes, is_revoked, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TokenHash, t.ClientID, joinScopes(t.Scopes), boolInt(t.IsRevoked),
		toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting access token: %w", err)
	}

	return nil
}

// LookupAccessToken returns the token row for tokenHash joined with its
// client, or nil if not found. Revoked and expired rows are returned as
// is; judging them is the caller's job.
func (s *Store) LookupAccessToken(ctx context.Context, tokenHash string) (*models.AccessToken, error) {
	var (
		t         models.AccessToken
		scopes    string
		revoked   int
		active    int
		expiresAt int64
		createdAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.token_hash, t.client_id, c.client_name, c.is_active,
			t.scopes, t.is_revoked, t.expires_at, t.created_at
		FROM access_tokens t
		JOIN oauth_clients c ON c.client_id = t.client_id
		WHERE t.token_hash = ?`, tokenHash,
	).Scan(&t.ID, &t.TokenHash, &t.ClientID, &t.ClientName, &active,
		&scopes, &revoked, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up access token: %w", err)
	}

	t.ClientActive = active != 0
	t.Scopes = splitScopes(scopes)
	t.IsRevoked = revoked != 0
	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)

	return &t, nil
}

// RevokeAccessToken marks the token with tokenHash revoked. It reports
// whether a row matched.
func (s *Store) RevokeAccessToken(ctx context.Context, tokenHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE access_tokens SET is_revoked = 1 WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("revoking access token: %w", err)
	}

	return affected(res)
}

// RevokeClientTokens revokes every live token issued to clientID and
// returns how many were revoked.
func (s *Store) RevokeClientTokens(ctx context.Context, clientID string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE access_tokens SET is_revoked = 1
		WHERE client_id = ? AND is_revoked = 0 AND expires_at > ?`,
		clientID, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("revoking client tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting revoked tokens: %w", err)
	}

	return n, nil
}
