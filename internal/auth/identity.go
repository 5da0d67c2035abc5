package auth

import "net/http"

type identityResponse struct {
	Authenticated bool      `json:"authenticated"`
	AuthRequired  bool      `json:"auth_required"`
	Type          TokenType `json:"type,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Identity      Trust     `json:"identity,omitempty"`
}

func identityFor(r *http.Request, required bool) identityResponse {
	resp := identityResponse{AuthRequired: required}

	if t := TrustFromContext(r.Context()); t != nil {
		resp.Authenticated = true
		resp.Type = t.Kind()
		resp.Subject = t.Subject()
		resp.Identity = t
	}

	return resp
}

// HandleMe returns the /api/me handler describing the caller's trust
// record.
func HandleMe(m *Middleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, identityFor(r, m.Required()))
	}
}

// HandleStatus returns the /api/status handler. It is mounted behind
// Optional, so anonymous callers get authenticated=false instead of a
// rejection.
func HandleStatus(m *Middleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, identityFor(r, m.Required()))
	}
}
