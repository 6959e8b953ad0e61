package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peterldowns/testy/check"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllow(t *testing.T) {
	now := time.Unix(0, 0)
	r := NewRateLimiter(time.Second)
	r.now = func() time.Time { return now }

	check.True(t, r.Allow("a"))
	check.False(t, r.Allow("a"))
	check.True(t, r.Allow("b"))

	now = now.Add(time.Second)
	check.True(t, r.Allow("a"))
}

func TestRateLimiterDisabled(t *testing.T) {
	r := NewRateLimiter(0)
	for range 5 {
		check.True(t, r.Allow("a"))
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := NewRateLimiter(time.Hour)
	e := gin.New()
	e.Use(r.Middleware())
	e.POST("/bid", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(bidder string) int {
		req := httptest.NewRequest(http.MethodPost, "/bid", nil)
		if bidder != "" {
			req.Header.Set(BidderHeader, bidder)
		}
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)
		return w.Code
	}

	check.Equal(t, http.StatusOK, do("team-a"))
	check.Equal(t, http.StatusTooManyRequests, do("team-a"))
	check.Equal(t, http.StatusOK, do("team-b"))
	// falls back to the client address
	check.Equal(t, http.StatusOK, do(""))
	check.Equal(t, http.StatusTooManyRequests, do(""))
}

func TestRecovery(t *testing.T) {
	e := gin.New()
	e.Use(Recovery(slog.Default()), Logger(slog.Default()))
	e.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	check.Equal(t, http.StatusInternalServerError, w.Code)
}
