package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
)

// InsertSession persists a new user session.
func (s *Store) InsertSession(ctx context.Context, sess models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, user_id, is_revoked, expires_at, last_accessed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.TokenHash, sess.UserID, boolInt(sess.IsRevoked),
		toMillis(sess.ExpiresAt), toMillis(sess.LastAccessed), toMillis(sess.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// LookupSession returns the session for tokenHash joined with its user,
// or nil if not found. Like LookupAccessToken it does not filter revoked
// or expired rows.
func (s *Store) LookupSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	var (
		sess         models.Session
		revoked      int
		active       int
		expiresAt    int64
		lastAccessed int64
		createdAt    int64
		userCreated  int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.token_hash, s.user_id, s.is_revoked, s.expires_at, s.last_accessed, s.created_at,
			u.id, u.username, u.email, u.role, u.is_active, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = ?`, tokenHash,
	).Scan(&sess.ID, &sess.TokenHash, &sess.UserID, &revoked, &expiresAt, &lastAccessed, &createdAt,
		&sess.User.ID, &sess.User.Username, &sess.User.Email, &sess.User.Role, &active, &userCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	sess.IsRevoked = revoked != 0
	sess.ExpiresAt = fromMillis(expiresAt)
	sess.LastAccessed = fromMillis(lastAccessed)
	sess.CreatedAt = fromMillis(createdAt)
	sess.User.IsActive = active != 0
	sess.User.CreatedAt = fromMillis(userCreated)

	return &sess, nil
}

// TouchSession records that the session was used at the given time.
// Concurrent touches are last-write-wins.
func (s *Store) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_accessed = ? WHERE id = ?`, toMillis(at), sessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	return nil
}

// RevokeSession marks a session revoked. It reports whether a row
// matched.
func (s *Store) RevokeSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET is_revoked = 1 WHERE id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("revoking session: %w", err)
	}

	return affected(res)
}

// RevokeUserSessions revokes every session belonging to userID and
// returns how many were revoked.
func (s *Store) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET is_revoked = 1 WHERE user_id = ? AND is_revoked = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoking user sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting revoked sessions: %w", err)
	}

	return n, nil
}
