package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HandleRevokeClient returns the handler revoking every live token of
// the client named by the {clientID} route parameter.
func HandleRevokeClient(store Store, logger *slog.Logger, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}

	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")

		client, err := store.ClientByID(r.Context(), clientID)
		if err != nil {
			logger.Error("admin: client lookup failed", slog.String("error", err.Error()))
			writeReject(w, rejectServerError(), "")
			return
		}
		if client == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "client not found",
			})
			return
		}

		n, err := store.RevokeClientTokens(r.Context(), clientID, now())
		if err != nil {
			logger.Error("admin: revoking client tokens failed",
				slog.String("client_id", clientID),
				slog.String("error", err.Error()),
			)
			writeReject(w, rejectServerError(), "")
			return
		}

		logger.Info("admin: client tokens revoked",
			slog.String("client_id", clientID),
			slog.Int64("count", n),
			slog.String("by_user_id", RequestUserID(r.Context())),
		)

		writeJSON(w, http.StatusOK, map[string]any{
			"client_id":      clientID,
			"tokens_revoked": n,
		})
	}
}

// HandleDeactivateUser returns the handler deactivating the user named
// by the {userID} route parameter and revoking their sessions.
func HandleDeactivateUser(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		if userID == RequestUserID(r.Context()) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "invalid_request",
				"message": "cannot deactivate your own account",
			})
			return
		}

		user, err := store.UserByID(r.Context(), userID)
		if err != nil {
			logger.Error("admin: user lookup failed", slog.String("error", err.Error()))
			writeReject(w, rejectServerError(), "")
			return
		}
		if user == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "user not found",
			})
			return
		}

		if _, err := store.SetUserActive(r.Context(), userID, false); err != nil {
			logger.Error("admin: deactivating user failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			writeReject(w, rejectServerError(), "")
			return
		}

		n, err := store.RevokeUserSessions(r.Context(), userID)
		if err != nil {
			logger.Error("admin: revoking user sessions failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			writeReject(w, rejectServerError(), "")
			return
		}

		logger.Info("admin: user deactivated",
			slog.String("user_id", userID),
			slog.String("username", user.Username),
			slog.Int64("sessions_revoked", n),
			slog.String("by_user_id", RequestUserID(r.Context())),
		)

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":          userID,
			"username":         user.Username,
			"is_active":        false,
			"sessions_revoked": n,
		})
	}
}

// HandleDeactivateClient returns the handler disabling the client named
// by the {clientID} route parameter. Its live tokens are revoked too, so
// reactivating the client does not revive them.
func HandleDeactivateClient(store Store, logger *slog.Logger, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}

	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")

		found, err := store.SetClientActive(r.Context(), clientID, false)
		if err != nil {
			logger.Error("admin: deactivating client failed",
				slog.String("client_id", clientID),
				slog.String("error", err.Error()),
			)
			writeReject(w, rejectServerError(), "")
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "client not found",
			})
			return
		}

		n, err := store.RevokeClientTokens(r.Context(), clientID, now())
		if err != nil {
			logger.Error("admin: revoking client tokens failed",
				slog.String("client_id", clientID),
				slog.String("error", err.Error()),
			)
			writeReject(w, rejectServerError(), "")
			return
		}

		logger.Info("admin: client deactivated",
			slog.String("client_id", clientID),
			slog.Int64("tokens_revoked", n),
			slog.String("by_user_id", RequestUserID(r.Context())),
		)

		writeJSON(w, http.StatusOK, map[string]any{
			"client_id":      clientID,
			"is_active":      false,
			"tokens_revoked": n,
		})
	}
}
