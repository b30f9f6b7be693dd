package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)

		assert.True(t, rl.Allow("client1"))
		assert.True(t, rl.Allow("client1"))
		assert.True(t, rl.Allow("client1"))
		assert.False(t, rl.Allow("client1"))
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)

		assert.True(t, rl.Allow("client1"))
		assert.False(t, rl.Allow("client1"))
		assert.True(t, rl.Allow("client2"))
	})

	t.Run("reports remaining tokens", func(t *testing.T) {
		rl := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, rl.Remaining("client1"))
		rl.Allow("client1")
		assert.Equal(t, 4, rl.Remaining("client1"))
		rl.Allow("client1")
		assert.Equal(t, 3, rl.Remaining("client1"))
	})

	t.Run("resets after window expires", func(t *testing.T) {
		rl := NewRateLimiter(1, 50*time.Millisecond)

		assert.True(t, rl.Allow("client1"))
		assert.False(t, rl.Allow("client1"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, rl.Allow("client1"))
	})

	t.Run("is safe under concurrent access", func(t *testing.T) {
		rl := NewRateLimiter(100, time.Minute)

		var wg sync.WaitGroup
		allowed := make(chan bool, 200)
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				allowed <- rl.Allow("shared")
			}()
		}
		wg.Wait()
		close(allowed)

		count := 0
		for ok := range allowed {
			if ok {
				count++
			}
		}
		assert.Equal(t, 100, count)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("passes requests under the limit", func(t *testing.T) {
		rl := NewRateLimiter(2, time.Minute)
		router := gin.New()
		router.Use(RateLimit(rl))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("rejects requests over the limit", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)
		router := gin.New()
		router.Use(RateLimit(rl))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest("GET", "/test", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("sets rate limit headers", func(t *testing.T) {
		rl := NewRateLimiter(10, time.Minute)
		router := gin.New()
		router.Use(RateLimit(rl))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("keys by custom extractor", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)
		router := gin.New()
		router.Use(RateLimitByKey(rl, func(c *gin.Context) string {
			return c.GetHeader("X-API-Key")
		}))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-API-Key", "key-a")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-API-Key", "key-b")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-API-Key", "key-a")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
