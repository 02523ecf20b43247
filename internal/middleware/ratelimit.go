package middleware

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk-api/pkg/config"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
	"github.com/noah-isme/complaint-desk-api/pkg/response"
)

// AttemptCounter counts hits per key within a fixed window.
type AttemptCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// ThrottleRecorder is notified when a request is rejected.
type ThrottleRecorder interface {
	RecordLoginThrottled()
}

// LoginRateLimit caps login attempts per client IP. Counter failures let the request
// through so an unavailable Redis never locks users out.
func LoginRateLimit(cfg config.LoginRateLimitConfig, counter AttemptCounter, recorder ThrottleRecorder, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled || counter == nil || cfg.MaxAttempts <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := strings.Join([]string{cfg.Prefix, "ip", ip}, ":")

		count, ttl, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("login rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(cfg.MaxAttempts) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxAttempts))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.MaxAttempts) {
			secs := int(math.Ceil(ttl.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			if recorder != nil {
				recorder.RecordLoginThrottled()
			}
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many login attempts, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
