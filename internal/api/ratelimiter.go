package api

import (
	"net"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

const (
	clientIdleTTL = 10 * time.Minute
	maxClients    = 10000
)

type rateLimiter interface {
	Allow(r *http.Request) bool
}

// WithRateLimit sets a per-client token bucket limiter. A non-positive rate
// or burst disables rate limiting.
func WithRateLimit(ratePerSecond float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		if ratePerSecond <= 0 || burst <= 0 {
			cfg.rateLimiter = nil
			return
		}
		cfg.rateLimiter = newClientLimiter(ratePerSecond, burst)
	}
}

// WithRateLimiter overrides the request rate limiter (primarily for tests).
func WithRateLimiter(limiter rateLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = limiter
	}
}

// clientLimiter gives every client address its own token bucket. Buckets
// expire after clientIdleTTL without requests, and at most maxClients are
// kept.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *ttlcache.Cache[string, *rate.Limiter]
}

func newClientLimiter(ratePerSecond float64, burst int) *clientLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		limit: rate.Limit(ratePerSecond),
		burst: burst,
		buckets: ttlcache.New(
			ttlcache.WithTTL[string, *rate.Limiter](clientIdleTTL),
			ttlcache.WithCapacity[string, *rate.Limiter](maxClients),
		),
	}
}

func (l *clientLimiter) Allow(r *http.Request) bool {
	item, _ := l.buckets.GetOrSetFunc(clientAddr(r), func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	return item.Value().Allow()
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(r) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
