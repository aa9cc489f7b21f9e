package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(b *Backend) *gin.Engine {
	r := gin.New()
	r.Use(b.bearerAuthMiddleware())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": userID(c)})
	})
	return r
}

func TestBearerAuthMiddleware_ValidToken(t *testing.T) {
	b := New()
	u := b.AddUser("Ana", "ana@example.com", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+b.IssueToken(u.ID))
	w := httptest.NewRecorder()
	protectedRouter(b).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, u.ID, body["user_id"])
}

func TestBearerAuthMiddleware_NoToken(t *testing.T) {
	b := New()
	w := httptest.NewRecorder()
	protectedRouter(b).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthMiddleware_InvalidToken(t *testing.T) {
	b := New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	protectedRouter(b).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthMiddleware_ExpiredToken(t *testing.T) {
	b := New()
	u := b.AddUser("Ana", "ana@example.com", "secret1")
	b.SetTokenTTL(-time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+b.IssueToken(u.ID))
	w := httptest.NewRecorder()
	protectedRouter(b).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFaultMiddleware_FailNext(t *testing.T) {
	b := New()
	r := b.Router()

	b.FailNext("GET /api/pets", http.StatusServiceUnavailable, 1)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pets", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pets", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, b.Hits("GET /api/pets"))
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	New().Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := New().Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}
