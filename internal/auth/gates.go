package auth

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/alexjbarnes/authkit/internal/models"
)

// unknownRequiredRank makes an unrecognized required role unsatisfiable.
const unknownRequiredRank = 999

var roleRanks = map[string]int{
	models.RoleUser:      1,
	models.RoleModerator: 2,
	models.RoleAdmin:     3,
}

// RoleRank returns the rank of role, 0 when unknown.
func RoleRank(role string) int {
	return roleRanks[role]
}

// RoleSatisfies reports whether a holder of role meets required.
func RoleSatisfies(role, required string) bool {
	need, ok := roleRanks[required]
	if !ok {
		need = unknownRequiredRank
	}

	return RoleRank(role) >= need
}

// HasScope reports whether scope is in granted. Matching is exact.
func HasScope(granted []string, scope string) bool {
	return slices.Contains(granted, scope)
}

// RequireScope only lets through requests whose trust grants scope.
// User sessions always pass; scopes only constrain OAuth2 clients.
func (m *Middleware) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.required {
				next.ServeHTTP(w, r)
				return
			}

			switch t := TrustFromContext(r.Context()).(type) {
			case *UserSessionTrust:
				next.ServeHTTP(w, r)
			case *OAuth2Trust:
				if !HasScope(t.Scopes, scope) {
					m.logger.Debug("gate: insufficient scope",
						slog.String("client_id", t.ClientID),
						slog.String("required_scope", scope),
					)
					writeReject(w, rejectInsufficientScope(scope, t.Scopes), m.metadataURL)
					return
				}
				next.ServeHTTP(w, r)
			default:
				writeReject(w, rejectUnauthorized(), m.metadataURL)
			}
		})
	}
}

// RequireRole only lets through user sessions whose role ranks at least
// as high as role. OAuth2 clients are always denied.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.required {
				next.ServeHTTP(w, r)
				return
			}

			switch t := TrustFromContext(r.Context()).(type) {
			case *UserSessionTrust:
				if !RoleSatisfies(t.Role, role) {
					m.logger.Debug("gate: insufficient role",
						slog.String("user_id", t.UserID),
						slog.String("role", t.Role),
						slog.String("required_role", role),
					)
					writeReject(w, rejectInsufficientRole(role, t.Role), m.metadataURL)
					return
				}
				next.ServeHTTP(w, r)
			case *OAuth2Trust:
				writeReject(w, rejectAccessDenied(), m.metadataURL)
			default:
				writeReject(w, rejectUnauthorized(), m.metadataURL)
			}
		})
	}
}
