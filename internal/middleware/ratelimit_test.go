package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.False(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "other", 2, time.Minute))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
}

func TestRedisLimiterFailsOpenWithoutClient(t *testing.T) {
	var limiter *RedisLimiter
	assert.Nil(t, NewRedisLimiter(nil, nil))
	assert.True(t, limiter.Allow(context.Background(), "k", 1, time.Minute))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	throttled := 0
	router := gin.New()
	router.POST("/login", RateLimit(NewMemoryLimiter(), "login", 1, time.Minute, func() { throttled++ }), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.1.1.1:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, throttled)
}
