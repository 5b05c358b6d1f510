// Package middleware provides HTTP middleware for the revisor API.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// maxBuckets bounds the number of tracked callers; the least recently
	// seen are evicted beyond it.
	maxBuckets = 100_000

	// bucketIdleTTL drops buckets of callers that went quiet.
	bucketIdleTTL = 10 * time.Minute
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ByClientIP charges requests to the client address. SetTrustedProxies(nil)
// in the router keeps X-Forwarded-For out of it.
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUser charges authenticated requests to the user and falls back to the
// client address. Department staff often share one egress address.
func ByUser(c *gin.Context) string {
	if uid := c.GetString(UserIDKey); uid != "" {
		return "user:" + uid
	}

	return ByClientIP(c)
}

// RateLimiter is a token bucket limiter keyed by KeyFunc.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *bucket]
	rate    float64
	burst   float64
	key     KeyFunc
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// take refills the bucket and consumes one token. When empty it returns how
// long until the next token.
func (b *bucket) take(now time.Time, rate, burst float64) (bool, time.Duration) {
	b.tokens = math.Min(burst, b.tokens+now.Sub(b.lastFill).Seconds()*rate)
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0
	}

	return false, time.Duration((1 - b.tokens) / rate * float64(time.Second))
}

// NewRateLimiter allows ratePerSec sustained requests per key with bursts of
// up to burst.
func NewRateLimiter(ratePerSec float64, burst int, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ByClientIP
	}

	return &RateLimiter{
		buckets: expirable.NewLRU[string, *bucket](maxBuckets, nil, bucketIdleTTL),
		rate:    ratePerSec,
		burst:   float64(burst),
		key:     key,
		now:     time.Now,
	}
}

// Allow charges one request to key.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: rl.burst, lastFill: now}
		rl.buckets.Add(key, b)
	}

	return b.take(now, rl.rate, rl.burst)
}

// Handler returns gin middleware that rejects requests over the limit with
// 429 and a Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow(rl.key(c))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
