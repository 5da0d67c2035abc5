// Package server builds authkit's HTTP router.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alexjbarnes/authkit/internal/auth"
	"github.com/alexjbarnes/authkit/internal/store"
	"github.com/go-chi/chi/v5"
)

// RouterConfig holds dependencies for building the router.
type RouterConfig struct {
	Store      *store.Store
	Middleware *auth.Middleware
	Issuer     *auth.Issuer
	Logger     *slog.Logger
	ServerURL  string
	// Scopes advertised in the metadata documents.
	Scopes []string
	Now    func() time.Time
}

// NewRouter mounts discovery, token issuance, session login and the
// protected API behind the trust middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	mw := cfg.Middleware

	r := chi.NewRouter()
	r.Get("/healthz", handleHealth(cfg.Store, cfg.Logger))

	r.Get("/.well-known/oauth-protected-resource", auth.HandleProtectedResourceMetadata(cfg.ServerURL, cfg.Scopes))
	r.Get("/.well-known/oauth-authorization-server", auth.HandleServerMetadata(cfg.ServerURL, cfg.Scopes))

	r.Post("/oauth/token", auth.HandleToken(cfg.Store, cfg.Issuer, cfg.Logger))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", auth.HandleLogin(cfg.Store, cfg.Issuer, cfg.Logger))
		r.With(mw.Authenticate).Post("/logout", auth.HandleLogout(cfg.Store, cfg.Logger))
	})

	r.Route("/api", func(r chi.Router) {
		r.With(mw.Authenticate, mw.RequireScope("profile")).Get("/me", auth.HandleMe(mw))
		r.With(mw.Optional).Get("/status", auth.HandleStatus(mw))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.Authenticate, mw.RequireRole("admin"))
		r.Post("/clients/{clientID}/revoke", auth.HandleRevokeClient(cfg.Store, cfg.Logger, cfg.Now))
		r.Post("/clients/{clientID}/deactivate", auth.HandleDeactivateClient(cfg.Store, cfg.Logger, cfg.Now))
		r.Post("/users/{userID}/deactivate", auth.HandleDeactivateUser(cfg.Store, cfg.Logger))
	})

	return r
}

func handleHealth(s *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ping(r.Context()); err != nil {
			logger.Error("health: store ping failed", slog.String("error", err.Error()))
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
