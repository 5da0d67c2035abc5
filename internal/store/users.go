package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexjbarnes/authkit/internal/models"
)

const userColumns = `id, username, email, password_hash, role, is_active, created_at`

// UpsertUser inserts u, or updates the existing user with the same
// username. It returns the stored user ID, which is the existing one on
// update.
func (s *Store) UpsertUser(ctx context.Context, u models.User) (string, error) {
	var id string

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			role = excluded.role,
			is_active = excluded.is_active
		RETURNING id`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, boolInt(u.IsActive), toMillis(u.CreatedAt),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting user: %w", err)
	}

	return id, nil
}

// UserByUsername returns the user with the given username, or nil if
// not found.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	return scanUser(row)
}

// UserByID returns the user with the given ID, or nil if not found.
func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	return scanUser(row)
}

// SetUserActive flips a user's active flag. It reports whether the user
// exists.
func (s *Store) SetUserActive(ctx context.Context, id string, active bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return false, fmt.Errorf("updating user: %w", err)
	}

	return affected(res)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		active    int
		createdAt int64
	)

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.IsActive = active != 0
	u.CreatedAt = fromMillis(createdAt)

	return &u, nil
}
