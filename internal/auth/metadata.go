package auth

import (
	"net/http"
	"strings"
)

// ProtectedResourceMetadata is the RFC 9728 response.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

// ServerMetadata is the RFC 8414 response. Only the token endpoint is
// served, so there is no authorization endpoint.
type ServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// HandleProtectedResourceMetadata returns the /.well-known/oauth-protected-resource handler.
func HandleProtectedResourceMetadata(serverURL string, scopes []string) http.HandlerFunc {
	serverURL = strings.TrimRight(serverURL, "/")

	return metadataHandler(ProtectedResourceMetadata{
		Resource:               serverURL,
		AuthorizationServers:   []string{serverURL},
		ScopesSupported:        scopes,
		BearerMethodsSupported: []string{"header"},
	})
}

// HandleServerMetadata returns the /.well-known/oauth-authorization-server handler.
func HandleServerMetadata(serverURL string, scopes []string) http.HandlerFunc {
	serverURL = strings.TrimRight(serverURL, "/")

	return metadataHandler(ServerMetadata{
		Issuer:                            serverURL,
		TokenEndpoint:                     serverURL + "/oauth/token",
		ScopesSupported:                   scopes,
		ResponseTypesSupported:            []string{},
		GrantTypesSupported:               []string{string(TokenTypeClientCredentials)},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
	})
}

func metadataHandler(meta any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, meta)
	}
}
