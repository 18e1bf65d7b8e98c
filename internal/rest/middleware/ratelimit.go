package middleware

import (
	"net/http"

	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a single token bucket to every request it wraps.
// A zero rate_limit disables it.
func RateLimitMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	inbound := cfg.Webhook.Inbound
	if inbound.RateLimit <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := inbound.RateBurst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(inbound.RateLimit), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.Error(ierr.NewError("rate limit exceeded").
				WithHint("Too many webhook deliveries, please retry later").
				Mark(ierr.ErrTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}

// MaxBodyMiddleware caps the request body at limit bytes
func MaxBodyMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
