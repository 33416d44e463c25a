package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.limiters[key]
	if !ok {
		r.evictIdle(now)
		entry = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (r *RateLimiter) evictIdle(now time.Time) {
	for key, entry := range r.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(r.limiters, key)
		}
	}
}

// RateLimit keys on the authenticated wallet when present and on the client
// IP otherwise.
func RateLimit(limiter *RateLimiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if principal, ok := MustPrincipal(c); ok {
			key = principal.Address
		}

		if !limiter.Allow(key) {
			log.Warn().
				Str("key", key).
				Str("request_id", GetRequestID(c)).
				Msg("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(limiter.limit)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 {
		return 60
	}
	seconds := int(math.Round(1 / float64(limit)))
	if seconds < 1 {
		return 1
	}
	return seconds
}
