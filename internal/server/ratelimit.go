package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/alnah/go-later2pdf/internal/metrics"
)

const (
	cleanupInterval = 3 * time.Minute
	minStaleAfter   = 5 * time.Minute
)

// ipLimiter holds a rate limiter and the last time it was seen.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client-IP token bucket on one route.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipLimiter
	rate       rate.Limit
	burst      int
	route      string
	staleAfter time.Duration
}

// PerWindow returns a limiter allowing n requests per window, all of which
// may be spent at once.
func PerWindow(ctx context.Context, route string, n int, window time.Duration) *RateLimiter {
	return NewRateLimiter(ctx, route, rate.Every(window/time.Duration(n)), n)
}

// NewRateLimiter creates a per-IP limiter. Idle entries are evicted until
// ctx is done.
func NewRateLimiter(ctx context.Context, route string, r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters:   make(map[string]*ipLimiter),
		rate:       r,
		burst:      burst,
		route:      route,
		staleAfter: staleAfter(r, burst),
	}
	go rl.cleanupLoop(ctx)
	return rl
}

// staleAfter is how long an idle bucket must sit before it is full again.
// Evicting earlier would hand a throttled client a fresh bucket.
func staleAfter(r rate.Limit, burst int) time.Duration {
	if r <= 0 || r == rate.Inf {
		return minStaleAfter
	}
	refill := time.Duration(float64(burst) / float64(r) * float64(time.Second))
	return max(refill, minStaleAfter)
}

// getLimiter returns the limiter for ip, creating one if needed.
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[ip]; ok {
		l.lastSeen = time.Now()
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now())
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, l := range rl.limiters {
		if now.Sub(l.lastSeen) > rl.staleAfter {
			delete(rl.limiters, ip)
		}
	}
}

// size returns the number of tracked clients.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// retryAfter is the wait, in whole seconds, for one token to refill.
func (rl *RateLimiter) retryAfter() int {
	if rl.rate <= 0 {
		return 1
	}
	// Tolerate float error so 1/(1/360) stays 360.
	return max(int(math.Ceil(1.0/float64(rl.rate)-1e-6)), 1)
}

// Middleware returns an Echo middleware that enforces the rate limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.getLimiter(c.RealIP()).Allow() {
				metrics.RecordRateLimited(rl.route)
				c.Response().Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
