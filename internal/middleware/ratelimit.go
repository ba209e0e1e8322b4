package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/response"
)

// RateLimiter is a fixed-window limiter shared across server instances
// through Redis. Requests are keyed by admin identity, then client IP.
type RateLimiter struct {
	rdb    *redis.Client
	name   string
	limit  int64
	window time.Duration
	log    zerolog.Logger
}

// NewRateLimiter allows limit requests per window for the named route group.
func NewRateLimiter(rdb *redis.Client, name string, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		name:   name,
		limit:  int64(limit),
		window: window,
		log:    log.With().Str("component", "rate_limiter").Str("limiter", name).Logger(),
	}
}

// Middleware returns a Gin middleware enforcing the limit. Redis failures
// let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.key(rateSubject(c), time.Now())

		ctx := c.Request.Context()
		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		remaining := rl.limit - incr.Val()
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if incr.Val() > rl.limit {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// key buckets now into the current window.
func (rl *RateLimiter) key(subject string, now time.Time) string {
	bucket := now.UnixNano() / int64(rl.window)
	return fmt.Sprintf("ratelimit:%s:%s:%d", rl.name, subject, bucket)
}

func rateSubject(c *gin.Context) string {
	if id := AdminID(c); id != "" {
		return "admin:" + id
	}
	return "ip:" + c.ClientIP()
}
