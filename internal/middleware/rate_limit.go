// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. Authenticated requests are keyed
// by user, anonymous ones by client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		idle:     3 * time.Minute,
		now:      time.Now,
	}
}

// Cleanup drops visitors idle for longer than the idle window.
func (rl *RateLimiter) Cleanup() int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	removed := 0
	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[key] = &visitor{limiter, rl.now()}
		return limiter
	}

	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			key = "user:" + userID
		}

		if !rl.getVisitor(key).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				i18n.T(utils.GetLangFromContext(c), i18n.KeyRateLimited), nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Default rate limiters
var (
	generalLimiter  = NewRateLimiter(rate.Every(100*time.Millisecond), 20) // 10 requests per second
	authLimiter     = NewRateLimiter(rate.Every(12*time.Second), 5)        // 5 auth requests per minute
	paymentLimiter  = NewRateLimiter(rate.Every(6*time.Second), 5)         // 10 payment actions per minute
	defaultLimiters = []*RateLimiter{generalLimiter, authLimiter, paymentLimiter}
	cleanupOnce     sync.Once
)

func startCleanup() {
	cleanupOnce.Do(func() {
		go func() {
			for range time.Tick(time.Minute) {
				for _, rl := range defaultLimiters {
					rl.Cleanup()
				}
			}
		}()
	})
}

func GeneralRateLimit() gin.HandlerFunc {
	startCleanup()
	return generalLimiter.Middleware()
}

func AuthRateLimit() gin.HandlerFunc {
	startCleanup()
	return authLimiter.Middleware()
}

// PaymentRateLimit guards checkout submissions and payment endpoints.
func PaymentRateLimit() gin.HandlerFunc {
	startCleanup()
	return paymentLimiter.Middleware()
}
