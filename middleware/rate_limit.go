package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// Per-IP token buckets. Quiet IPs get dropped after a few minutes so the map
// doesn't grow with every visitor ever seen.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	buckets   = make(map[string]*bucket)
	bucketsMu sync.Mutex
)

const (
	bucketTTL     = 3 * time.Minute
	cleanupPeriod = time.Minute
)

func bucketFor(ip string, rps, burst int) *rate.Limiter {
	bucketsMu.Lock()
	defer bucketsMu.Unlock()

	b, ok := buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		buckets[ip] = b
	}
	b.lastSeen = time.Now()

	return b.limiter
}

func dropStaleBuckets() {
	for {
		time.Sleep(cleanupPeriod)

		bucketsMu.Lock()
		for ip, b := range buckets {
			if time.Since(b.lastSeen) > bucketTTL {
				delete(buckets, ip)
			}
		}
		bucketsMu.Unlock()
	}
}

// RateLimiter throttles by client IP using the ratelimit.* config keys
func RateLimiter() gin.HandlerFunc {
	rps := viper.GetInt("ratelimit.rps")
	burst := viper.GetInt("ratelimit.burst")

	go dropStaleBuckets()

	return func(c *gin.Context) {
		if !bucketFor(c.ClientIP(), rps, burst).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
