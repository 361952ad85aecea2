package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(rps, burst).Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func getFrom(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":52000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterThrottlesAfterBurst(t *testing.T) {
	// Zero refill rate: the burst is the whole budget.
	r := rateLimitedRouter(0, 2)

	assert.Equal(t, http.StatusOK, getFrom(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, getFrom(r, "10.0.0.1").Code)

	w := getFrom(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	r := rateLimitedRouter(0, 1)

	assert.Equal(t, http.StatusOK, getFrom(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, getFrom(r, "10.0.0.1").Code)

	// A different client still has its full budget.
	assert.Equal(t, http.StatusOK, getFrom(r, "10.0.0.2").Code)
}
