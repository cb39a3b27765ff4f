package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/core"
	"github.com/Annany2002/taxacurator/internal/editor"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/geo"
	"github.com/Annany2002/taxacurator/internal/session"
)

func TestMapError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{"record not found", fmt.Errorf("reading: %w", gateway.ErrRecordNotFound), http.StatusNotFound},
		{"unknown console", console.ErrUnknownConsole, http.StatusNotFound},
		{"duplicate id", fmt.Errorf("%w: Xus", editor.ErrDuplicateID), http.StatusConflict},
		{"constraint", gateway.ErrConstraintViolation, http.StatusConflict},
		{"draft validation", &editor.ValidationError{Fields: map[string]string{"id": "is required"}}, http.StatusBadRequest},
		{"query parameter", fmt.Errorf("%w 'page'", core.ErrInvalidParam), http.StatusBadRequest},
		{"hemisphere", fmt.Errorf("latitude: %w", geo.ErrInvalidHemisphere), http.StatusBadRequest},
		{"coordinate format", fmt.Errorf("new_distribution[0]: %w %q", geo.ErrUnsupportedFormat, "degrees"), http.StatusBadRequest},
		{"bad credentials", session.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", session.ErrTokenExpired, http.StatusUnauthorized},
		{"revoked session", session.ErrSessionRevoked, http.StatusUnauthorized},
		{"unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, body["error"])
		})
	}

	_, body := mapError(&editor.ValidationError{Fields: map[string]string{"id": "is required"}})
	assert.Equal(t, map[string]string{"id": "is required"}, body["fields"])
}

func TestErrorHandlerWritesMappedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/missing", func(c *gin.Context) { _ = c.Error(gateway.ErrRecordNotFound) })
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "record not found")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "window slides")
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, rl.Allow(ip))
	}
	assert.Len(t, rl.requests, 3)

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("10.0.0.4"))
	assert.Len(t, rl.requests, 1)
	assert.Contains(t, rl.requests, "10.0.0.4")
}
