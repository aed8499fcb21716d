package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newLimiter(t *testing.T, client redis.UniversalClient, cfg RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))
	rl.now = clock.now
	return rl, clock
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/users/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/users", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func get(r http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_WithinBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true})
	r := limitedRouter(rl)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	}
}

func TestRateLimiter_ExceedBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true})
	r := limitedRouter(rl)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	}

	w := get(r, "/users", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiter_Refills(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, clock := newLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	r := limitedRouter(rl)

	require.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	require.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "/users", "10.0.0.1").Code)

	clock.advance(time.Second)

	assert.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
}

func TestRateLimiter_KeyedByIPAndRoute(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	r := limitedRouter(rl)

	require.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "/users", "10.0.0.1").Code)

	assert.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.2").Code, "other client")
	assert.Equal(t, http.StatusOK, get(r, "/users/65f1c2a4e13b8a0d9c7f4e21", "10.0.0.1").Code, "other route")
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/users/65f1c2a4e13b8a0d9c7f4e22", "10.0.0.1").Code, "same route template")

	assert.True(t, mr.Exists("ratelimit:tb:GET:/users/:id:10.0.0.1"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false})
	r := limitedRouter(rl)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	}
	assert.Empty(t, mr.Keys())
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	r := limitedRouter(rl)

	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
	}
}

func TestRateLimiter_NilLimiter(t *testing.T) {
	var rl *RateLimiter
	r := limitedRouter(rl)

	assert.Equal(t, http.StatusOK, get(r, "/users", "10.0.0.1").Code)
}

func TestLogger_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	get(r, "/ok?page=2", "10.0.0.1")
	get(r, "/missing", "10.0.0.1")
	get(r, "/broken", "10.0.0.1")

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok?page=2", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.ErrorLevel)

	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := get(r, "/panic", "10.0.0.1")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"An internal error occurred"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
