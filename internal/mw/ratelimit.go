package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter pairs a token bucket with its last use, so idle clients can
// be pruned.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client key. The key is taken
// from the configured proxy header when present, falling back to the remote
// address.
type ClientRateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	ipHeader string
}

// NewClientRateLimiter creates a limiter allowing r requests per second with
// the given burst. ipHeader names the proxy header carrying the real client
// address; empty means trust gin's ClientIP.
func NewClientRateLimiter(r rate.Limit, burst int, ipHeader string) *ClientRateLimiter {
	rl := &ClientRateLimiter{
		clients:  make(map[string]*clientLimiter),
		rate:     r,
		burst:    burst,
		ipHeader: ipHeader,
	}
	go rl.prune()
	return rl
}

func (rl *ClientRateLimiter) clientKey(c *gin.Context) string {
	if rl.ipHeader != "" {
		if v := c.GetHeader(rl.ipHeader); v != "" {
			return v
		}
	}
	return c.ClientIP()
}

func (rl *ClientRateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// prune evicts clients idle for more than ten minutes.
func (rl *ClientRateLimiter) prune() {
	for range time.Tick(time.Minute) {
		rl.mu.Lock()
		for key, cl := range rl.clients {
			if time.Since(cl.lastSeen) > 10*time.Minute {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware rejects requests over the per-client budget with 429.
func (rl *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(rl.clientKey(c)).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
