// api/handlers/auth_handler_integration_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/api"
	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/config"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/session"
)

const (
	testSecret   = "test_secret_key_for_integration_tests_1234567890"
	testEmail    = "curator@example.org"
	testPassword = "StrongPassword123!"
)

// testServer bundles a running API with the store behind it.
type testServer struct {
	*httptest.Server
	store    *gateway.SQLiteStore
	sessions *session.Manager
}

// setupTestServer creates a test server backed by a temporary SQLite store
// with one seeded curator account.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testCfg := &config.Config{
		ServerPort:         "0",
		JWTSecret:          testSecret,
		JWTExpiration:      5 * time.Minute,
		GatewayDriver:      config.GatewaySQLite,
		CORSOrigins:        []string{"http://localhost:3000"},
		RateLimitPerMinute: 1000,
		DefaultPageSize:    25,
		MaxPageSize:        500,
	}

	store, err := gateway.ConnectSQLite(context.Background(), t.TempDir(), "test_taxa.db")
	require.NoError(t, err, "Failed to open test store")

	sessions := session.NewManager(store, testCfg.JWTSecret, testCfg.JWTExpiration)
	require.NoError(t, sessions.EnsureAdmin(context.Background(), testEmail, testPassword, "Test Curator"))

	server := httptest.NewServer(api.SetupRouter(store, sessions, testCfg))
	t.Cleanup(func() {
		server.Close()
		if err := store.Close(); err != nil {
			t.Logf("Warning: failed to close test store: %v", err)
		}
	})
	return &testServer{Server: server, store: store, sessions: sessions}
}

// do sends a JSON request and returns the status and raw body.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, raw
}

// login returns a fresh token for the seeded curator.
func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: testEmail, Password: testPassword})
	require.Equal(t, http.StatusOK, status, string(raw))
	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	return res.Token
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// TestAuthEndpoints performs integration tests on the session endpoints.
func TestAuthEndpoints(t *testing.T) {
	server := setupTestServer(t)

	var token string

	t.Run("Login Success", func(t *testing.T) {
		status, raw := server.do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: testEmail, Password: testPassword})
		assert.Equal(t, http.StatusOK, status, "Expected status 200 OK")

		res := decode[models.LoginResponse](t, raw)
		assert.Equal(t, "Login successful", res.Message)
		assert.NotEmpty(t, res.Token, "Token should not be empty on successful login")
		assert.Equal(t, "Test Curator", res.User.DisplayName)
		assert.True(t, res.ExpiresAt.After(time.Now()))

		sess, err := server.sessions.Validate(res.Token)
		require.NoError(t, err, "Returned token should be valid")
		assert.Equal(t, testEmail, sess.Email)
		token = res.Token
	})

	t.Run("Login Is Case Insensitive On Email", func(t *testing.T) {
		status, _ := server.do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "Curator@Example.org", Password: testPassword})
		assert.Equal(t, http.StatusOK, status)
	})

	testCases := []struct {
		name   string
		body   any
		status int
	}{
		{"Login Unauthorized (Wrong Password)", models.LoginRequest{Email: testEmail, Password: "IncorrectPassword"}, http.StatusUnauthorized},
		{"Login Unauthorized (Unknown Account)", models.LoginRequest{Email: "nosuchuser@example.com", Password: "anyPassword"}, http.StatusUnauthorized},
		{"Login Bad Request (Invalid Email Format)", models.LoginRequest{Email: "invalid-email-format", Password: testPassword}, http.StatusBadRequest},
		{"Login Bad Request (Missing Password)", map[string]string{"email": testEmail}, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := server.do(t, http.MethodPost, "/auth/login", "", tc.body)
			assert.Equal(t, tc.status, status, string(raw))
			assert.Contains(t, decode[map[string]any](t, raw), "error")
		})
	}

	t.Run("Protected Route Requires Token", func(t *testing.T) {
		status, _ := server.do(t, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = server.do(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Me", func(t *testing.T) {
		status, raw := server.do(t, http.MethodGet, "/api/v1/me", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, testEmail, decode[models.SessionUser](t, raw).Email)
	})

	t.Run("Refresh Revokes The Old Token", func(t *testing.T) {
		status, raw := server.do(t, http.MethodPost, "/auth/refresh", token, nil)
		require.Equal(t, http.StatusOK, status, string(raw))
		next := decode[models.LoginResponse](t, raw).Token
		assert.NotEqual(t, token, next)

		status, _ = server.do(t, http.MethodGet, "/api/v1/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = server.do(t, http.MethodGet, "/api/v1/me", next, nil)
		assert.Equal(t, http.StatusOK, status)
		token = next
	})

	t.Run("Logout", func(t *testing.T) {
		status, _ := server.do(t, http.MethodPost, "/auth/logout", token, nil)
		assert.Equal(t, http.StatusOK, status)

		status, raw := server.do(t, http.MethodGet, "/api/v1/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Session has been signed out.", decode[map[string]any](t, raw)["error"])
	})
}

func TestPublicEndpoints(t *testing.T) {
	server := setupTestServer(t)

	status, raw := server.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", string(raw))

	status, raw = server.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "taxacurator_api_requests_total")
}
