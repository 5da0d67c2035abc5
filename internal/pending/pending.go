// Package pending persists in-flight authorization attempts between the
// redirect to the authorization server and the callback, keyed by the
// state parameter.
package pending

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alexjbarnes/authkit/internal/oauth2"
	bolt "go.etcd.io/bbolt"
)

const (
	// dirPerm is the permission mode for the directory holding the db.
	dirPerm = fs.FileMode(0o700)

	// filePerm is the permission mode for the database file. Verifiers
	// are secrets until consumed.
	filePerm = fs.FileMode(0o600)

	// openTimeout is the maximum time to wait for the bolt database lock.
	openTimeout = 5 * time.Second
)

var attemptsBucket = []byte("attempts")

// ErrNoState is returned by Save when the attempt has no state value.
var ErrNoState = errors.New("pending attempt has no state")

// Attempt is one authorization attempt awaiting its callback.
type Attempt struct {
	State         string                     `json:"state"`
	CodeVerifier  string                     `json:"code_verifier,omitempty"`
	Method        oauth2.CodeChallengeMethod `json:"method,omitempty"`
	ClientID      string                     `json:"client_id"`
	RedirectURI   string                     `json:"redirect_uri,omitempty"`
	TokenEndpoint string                     `json:"token_endpoint,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	ExpiresAt     time.Time                  `json:"expires_at"`
}

func (a *Attempt) expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// Store wraps a bbolt database of pending attempts.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// LoadAt opens the pending store at path, creating it if it does not
// exist.
func LoadAt(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating pending store directory: %w", err)
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening pending store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(attemptsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing pending store: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists an attempt, replacing any attempt with the same state.
func (s *Store) Save(a Attempt) error {
	if a.State == "" {
		return ErrNoState
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding attempt: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(attemptsBucket).Put([]byte(a.State), data)
	})
}

// Consume returns the attempt for state and deletes it in the same
// transaction, so a state value can be redeemed at most once. Unknown
// and expired states return nil; expired entries are removed.
func (s *Store) Consume(state string) (*Attempt, error) {
	var a *Attempt

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(attemptsBucket)

		v := b.Get([]byte(state))
		if v == nil {
			return nil
		}

		var got Attempt
		if err := json.Unmarshal(v, &got); err != nil {
			return fmt.Errorf("decoding attempt: %w", err)
		}

		if err := b.Delete([]byte(state)); err != nil {
			return err
		}

		if !got.expired(s.now()) {
			a = &got
		}

		return nil
	})

	return a, err
}

// Cleanup removes expired attempts and reports how many were removed.
// Entries that fail to decode are removed too.
func (s *Store) Cleanup() (int, error) {
	now := s.now()
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(attemptsBucket)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var a Attempt
			if err := json.Unmarshal(v, &a); err != nil || a.expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		removed = len(stale)

		return nil
	})

	return removed, err
}
