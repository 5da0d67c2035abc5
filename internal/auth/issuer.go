package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexjbarnes/authkit/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTokenTTL = time.Hour
	defaultSessionTTL     = 24 * time.Hour
)

// IssuedToken is a freshly minted bearer token. Token is the only copy
// of the raw credential; the store keeps its hash.
type IssuedToken struct {
	ID        string
	Token     string
	Scopes    []string
	ExpiresAt time.Time
}

// IssuerConfig holds the issuer's dependencies.
type IssuerConfig struct {
	Store          Store
	Signer         *Signer
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration
	Now            func() time.Time
}

// Issuer mints signed tokens and records them in the store.
type Issuer struct {
	store      Store
	signer     *Signer
	accessTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewIssuer builds an Issuer, defaulting zero TTLs.
func NewIssuer(cfg IssuerConfig) *Issuer {
	i := &Issuer{
		store:      cfg.Store,
		signer:     cfg.Signer,
		accessTTL:  cfg.AccessTokenTTL,
		sessionTTL: cfg.SessionTTL,
		now:        cfg.Now,
	}
	if i.accessTTL <= 0 {
		i.accessTTL = defaultAccessTokenTTL
	}
	if i.sessionTTL <= 0 {
		i.sessionTTL = defaultSessionTTL
	}
	if i.now == nil {
		i.now = time.Now
	}

	return i
}

// IssueClientToken mints a client_credentials token for client carrying
// scopes.
func (i *Issuer) IssueClientToken(ctx context.Context, client *models.Client, scopes []string) (IssuedToken, error) {
	now := i.now()
	id := uuid.NewString()
	exp := now.Add(i.accessTTL)

	raw, err := i.signer.Sign(Claims{
		Type:             TokenTypeClientCredentials,
		Scope:            strings.Join(scopes, " "),
		RegisteredClaims: registered(id, client.ClientID, now, exp),
	})
	if err != nil {
		return IssuedToken{}, err
	}

	err = i.store.InsertAccessToken(ctx, models.AccessToken{
		ID:        id,
		TokenHash: models.TokenHash(raw),
		ClientID:  client.ClientID,
		Scopes:    scopes,
		ExpiresAt: exp,
		CreatedAt: now,
	})
	if err != nil {
		return IssuedToken{}, fmt.Errorf("recording access token: %w", err)
	}

	return IssuedToken{ID: id, Token: raw, Scopes: scopes, ExpiresAt: exp}, nil
}

// IssueSession mints a session token for user and records the session.
func (i *Issuer) IssueSession(ctx context.Context, user *models.User) (IssuedToken, error) {
	now := i.now()
	sessionID := uuid.NewString()
	exp := now.Add(i.sessionTTL)

	raw, err := i.signer.Sign(Claims{
		Type:             TokenTypeUserSession,
		Role:             user.Role,
		SessionID:        sessionID,
		RegisteredClaims: registered(uuid.NewString(), user.ID, now, exp),
	})
	if err != nil {
		return IssuedToken{}, err
	}

	err = i.store.InsertSession(ctx, models.Session{
		ID:           sessionID,
		TokenHash:    models.TokenHash(raw),
		UserID:       user.ID,
		ExpiresAt:    exp,
		LastAccessed: now,
		CreatedAt:    now,
	})
	if err != nil {
		return IssuedToken{}, fmt.Errorf("recording session: %w", err)
	}

	return IssuedToken{ID: sessionID, Token: raw, ExpiresAt: exp}, nil
}

func registered(jti, subject string, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        jti,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}
