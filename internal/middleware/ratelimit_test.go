package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy-chat/internal/ratelimit"
)

func setupLimitedRouter(limiter *ratelimit.Limiter, window ratelimit.Window, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("userID", userID)
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(limiter, window))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimitMiddlewareAllowsWithinLimit(t *testing.T) {
	window := ratelimit.Window{Name: "test", Limit: 3, Period: time.Minute}
	router := setupLimitedRouter(ratelimit.New(), window, 1)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitMiddlewareRejectsWithRetryAfter(t *testing.T) {
	window := ratelimit.Window{Name: "test", Limit: 1, Period: time.Minute}
	router := setupLimitedRouter(ratelimit.New(), window, 1)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "retry_after")
}

func TestRateLimitMiddlewareIsolatesUsers(t *testing.T) {
	window := ratelimit.Window{Name: "test", Limit: 1, Period: time.Minute}
	limiter := ratelimit.New()

	alice := setupLimitedRouter(limiter, window, 1)
	bob := setupLimitedRouter(limiter, window, 2)

	rec := httptest.NewRecorder()
	alice.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	bob.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code, "another user's traffic must not consume this user's window")
}

func TestRateLimitMiddlewareFallsBackToIP(t *testing.T) {
	window := ratelimit.Window{Name: "test", Limit: 1, Period: time.Minute}
	router := setupLimitedRouter(ratelimit.New(), window, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
