package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/matching/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func get(r http.Handler, path, ip string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimitMiddleware(rate.NewLimiter(rate.Every(time.Hour), 2), zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, "/api/matching/stats", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "/api/matching/stats", "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/matching/stats", "10.0.0.3"))

	// health-check не ограничивается
	assert.Equal(t, http.StatusOK, get(r, "/api/health", "10.0.0.1"))
}

func TestIPRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 1)
	r := newEngine(IPRateLimitMiddleware(limiter, zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, "/api/matching/stats", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/matching/stats", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "/api/matching/stats", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, get(r, "/api/health", "10.0.0.1"))
	assert.Equal(t, 2, limiter.Size())
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("10.0.0.1")
	now = now.Add(8 * time.Minute)
	limiter.GetLimiter("10.0.0.2")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, limiter.Cleanup())
	assert.Equal(t, 1, limiter.Size())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newEngine(RequestLogger(zap.New(core)))

	get(r, "/api/health", "10.0.0.1")
	get(r, "/api/fail", "10.0.0.1")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Request handled", entries[0].Message)
	assert.Equal(t, "/api/health", entries[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.Equal(t, "Request failed", entries[1].Message)
	assert.Equal(t, "10.0.0.1", entries[1].ContextMap()["client_ip"])
}
