package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/a2a-routing/console/internal/logger"
)

const limiterIdleTTL = 5 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimit is a token bucket per client IP. Buckets idle for a while are
// forgotten on the next request that finds them stale.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastSweep = time.Now()
	)

	allow := func(ip string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastSweep) > time.Minute {
			for k, b := range buckets {
				if now.Sub(b.seen) > limiterIdleTTL {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}

		b, ok := buckets[ip]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
			buckets[ip] = b
		}
		b.seen = now
		return b.lim.AllowN(now, 1)
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !allow(ip, time.Now()) {
			logger.WithFields(map[string]interface{}{
				"path": c.Request.URL.Path,
				"ip":   ip,
			}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many attempts, try again later",
			})
			return
		}
		c.Next()
	}
}
