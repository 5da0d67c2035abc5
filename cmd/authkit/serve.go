package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/alexjbarnes/authkit/internal/auth"
	"github.com/alexjbarnes/authkit/internal/config"
	"github.com/alexjbarnes/authkit/internal/logging"
	"github.com/alexjbarnes/authkit/internal/models"
	"github.com/alexjbarnes/authkit/internal/server"
	"github.com/alexjbarnes/authkit/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the token trust server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
			logger.Info("authkit starting",
				slog.String("version", Version),
				slog.Bool("auth_required", cfg.AuthRequired),
			)
			if !cfg.AuthRequired {
				logger.Warn("authentication is disabled; every request is let through")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	s, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	clients, err := seed(ctx, s, cfg, logger)
	if err != nil {
		return err
	}

	signer := auth.NewSigner([]byte(cfg.SigningSecret), cfg.ServerURL, nil)

	handler := server.NewRouter(server.RouterConfig{
		Store: s,
		Middleware: auth.NewMiddleware(auth.MiddlewareConfig{
			Store:     s,
			Signer:    signer,
			Required:  cfg.AuthRequired,
			Logger:    logger.With(slog.String("component", "auth")),
			ServerURL: cfg.ServerURL,
		}),
		Issuer: auth.NewIssuer(auth.IssuerConfig{
			Store:          s,
			Signer:         signer,
			AccessTokenTTL: cfg.AccessTokenTTL,
			SessionTTL:     cfg.SessionTTL,
		}),
		Logger:    logger,
		ServerURL: cfg.ServerURL,
		Scopes:    advertisedScopes(clients),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server",
			slog.String("listen", cfg.ListenAddr),
			slog.String("server_url", cfg.ServerURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		cleanupLoop(gctx, s, cfg.CleanupInterval, logger)
		return nil
	})

	return g.Wait()
}

// seed upserts the configured users and clients and returns the clients.
func seed(ctx context.Context, s *store.Store, cfg *config.Config, logger *slog.Logger) ([]config.SeedClient, error) {
	users, err := cfg.ParseSeedUsers()
	if err != nil {
		return nil, fmt.Errorf("parsing seed users: %w", err)
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", u.Username, err)
		}

		id, err := s.UpsertUser(ctx, models.User{
			ID:           uuid.NewString(),
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: string(hash),
			Role:         u.Role,
			IsActive:     true,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("seeding user %s: %w", u.Username, err)
		}

		logger.Info("seeded user",
			slog.String("username", u.Username),
			slog.String("user_id", id),
			slog.String("role", u.Role),
		)
	}

	clients, err := cfg.ParseSeedClients()
	if err != nil {
		return nil, fmt.Errorf("parsing seed clients: %w", err)
	}

	for _, c := range clients {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing secret for %s: %w", c.ClientID, err)
		}

		if err := s.UpsertClient(ctx, models.Client{
			ClientID:   c.ClientID,
			ClientName: c.ClientID,
			SecretHash: string(hash),
			Scopes:     c.Scopes,
			IsActive:   true,
			CreatedAt:  time.Now(),
		}); err != nil {
			return nil, fmt.Errorf("seeding client %s: %w", c.ClientID, err)
		}

		logger.Info("seeded client",
			slog.String("client_id", c.ClientID),
			slog.Any("scopes", c.Scopes),
		)
	}

	return clients, nil
}

// advertisedScopes is the sorted union of the seeded client scopes and
// "profile", which /api/me requires.
func advertisedScopes(clients []config.SeedClient) []string {
	scopes := []string{"profile"}
	for _, c := range clients {
		scopes = append(scopes, c.Scopes...)
	}

	slices.Sort(scopes)
	return slices.Compact(scopes)
}

// cleanupLoop deletes expired tokens and sessions every interval until
// ctx is cancelled.
func cleanupLoop(ctx context.Context, s *store.Store, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx, time.Now())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("cleanup: deleting expired credentials failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Debug("cleanup: expired credentials deleted", slog.Int64("count", n))
			}
		}
	}
}
