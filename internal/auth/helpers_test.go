package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time { return testNow }

func testSigner() *Signer {
	return NewSigner([]byte(testSecret), "", fixedClock)
}

// signTest signs a token of typ for subject expiring after ttl.
func signTest(t *testing.T, typ TokenType, subject string, ttl time.Duration) string {
	t.Helper()
	raw, err := testSigner().Sign(Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(ttl)),
		},
	})
	require.NoError(t, err)
	return raw
}

// captureHandler records whether it ran and the trust it saw.
type captureHandler struct {
	called bool
	trust  Trust
	ip     string
}

func (c *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.called = true
	c.trust = TrustFromContext(r.Context())
	c.ip = RequestRemoteIP(r.Context())
	w.WriteHeader(http.StatusOK)
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
