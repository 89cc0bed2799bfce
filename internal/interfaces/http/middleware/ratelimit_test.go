package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perSecond float64, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perSecond, burst)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_Reserve(t *testing.T) {
	t.Run("allows the burst then rejects", func(t *testing.T) {
		rl, _ := newTestLimiter(1, 3)
		for i := 0; i < 3; i++ {
			ok, _ := rl.Reserve("client")
			assert.True(t, ok, "request %d should be allowed", i+1)
		}
		ok, retry := rl.Reserve("client")
		assert.False(t, ok)
		assert.Equal(t, time.Second, retry)
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl, _ := newTestLimiter(1, 1)
		ok, _ := rl.Reserve("a")
		assert.True(t, ok)
		ok, _ = rl.Reserve("a")
		assert.False(t, ok)
		ok, _ = rl.Reserve("b")
		assert.True(t, ok)
	})

	t.Run("refills over time", func(t *testing.T) {
		rl, clock := newTestLimiter(2, 1)
		ok, _ := rl.Reserve("client")
		assert.True(t, ok)
		ok, _ = rl.Reserve("client")
		assert.False(t, ok)

		clock.Advance(500 * time.Millisecond)
		ok, _ = rl.Reserve("client")
		assert.True(t, ok)
	})

	t.Run("rejected requests do not consume tokens", func(t *testing.T) {
		rl, clock := newTestLimiter(1, 1)
		ok, _ := rl.Reserve("client")
		assert.True(t, ok)
		for i := 0; i < 5; i++ {
			ok, _ = rl.Reserve("client")
			assert.False(t, ok)
		}
		clock.Advance(time.Second)
		ok, _ = rl.Reserve("client")
		assert.True(t, ok)
	})

	t.Run("idle buckets are swept", func(t *testing.T) {
		rl, clock := newTestLimiter(1, 1)
		_, _ = rl.Reserve("old")
		clock.Advance(11 * time.Minute)
		_, _ = rl.Reserve("new")
		assert.NotContains(t, rl.buckets, "old")
		assert.Contains(t, rl.buckets, "new")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, 2)

	router := gin.New()
	router.Use(RequestID(), RateLimit(rl))
	router.GET("/public/documents/:token", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/public/documents/abc", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do("10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)

	w = do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), dto.ErrCodeRateLimited)

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}
