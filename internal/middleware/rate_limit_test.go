package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"mitaict-site/internal/observability"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestFrom(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter("test-burst", 2, 2)
	defer rl.Stop()
	handler := limitedHandler(rl)

	rejected := observability.RateLimitedTotal.WithLabelValues("test-burst")
	before := promtest.ToFloat64(rejected)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("192.168.1.1:1234"))
		assert.Equal(t, http.StatusOK, w.Code, "request %d should fit the burst", i+1)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("192.168.1.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, before+1, promtest.ToFloat64(rejected))
}

func TestRateLimiter_KeyedByIPNotPort(t *testing.T) {
	rl := NewRateLimiter("test-port", 1, 1)
	defer rl.Stop()
	handler := limitedHandler(rl)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "a new source port is the same client")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:1111"))
	assert.Equal(t, http.StatusOK, w.Code, "another IP has its own bucket")

	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter("test-cleanup", 10, 1)
	defer rl.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		rl.getLimiter("192.168.1." + strconv.Itoa(i))
	}
	assert.Equal(t, 100, rl.Len())

	now = now.Add(limiterTTL / 2)
	rl.getLimiter("192.168.1.7")

	now = now.Add(limiterTTL/2 + time.Second)
	rl.cleanup()

	assert.Equal(t, 1, rl.Len(), "only the recently used limiter survives")
}

func TestRateLimiter_LRUEviction(t *testing.T) {
	rl := NewRateLimiter("test-lru", 10, 1)
	defer rl.Stop()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	rl.now = func() time.Time { return start.Add(time.Duration(tick) * time.Millisecond) }

	total := maxLimiters + 500
	for tick = 0; tick < total; tick++ {
		rl.getLimiter("ip-" + strconv.Itoa(tick))
	}

	rl.cleanup()

	assert.Equal(t, maxLimiters/2, rl.Len())
	rl.mu.Lock()
	_, newest := rl.limiters["ip-"+strconv.Itoa(total-1)]
	_, oldest := rl.limiters["ip-0"]
	rl.mu.Unlock()
	assert.True(t, newest, "most recent limiter is kept")
	assert.False(t, oldest, "least recent limiter is evicted")
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter("test-concurrent", 100, 10)
	defer rl.Stop()
	handler := limitedHandler(rl)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				handler.ServeHTTP(httptest.NewRecorder(), requestFrom("172.16.0."+strconv.Itoa(id)+":1234"))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, rl.Len())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter("test-stop", 1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	tests := []struct {
		rps  float64
		want int
	}{
		{10, 1},
		{1, 1},
		{0.5, 2},
		{0.1, 10},
		{0, 60},
	}
	for _, tt := range tests {
		rl := &RateLimiter{rate: rate.Limit(tt.rps)}
		assert.Equal(t, tt.want, rl.retryAfter(), "rps %v", tt.rps)
	}
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "203.0.113.9", ClientIP(requestFrom("203.0.113.9:5555")))
	assert.Equal(t, "::1", ClientIP(requestFrom("[::1]:5555")))
	assert.Equal(t, "203.0.113.9", ClientIP(requestFrom("203.0.113.9")), "RealIP leaves no port")
}
