package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket survives without requests.
const idleTTL = 10 * time.Minute

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// allow takes a token from addr's bucket, creating the bucket on first use.
func (cl *clientLimiter) allow(addr string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	b, ok := cl.buckets[addr]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(cl.limit, cl.burst)}
		cl.buckets[addr] = b
	}
	b.seen = now
	return b.tokens.AllowN(now, 1)
}

func (cl *clientLimiter) evictIdle() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cutoff := cl.now().Add(-idleTTL)
	for addr, b := range cl.buckets {
		if b.seen.Before(cutoff) {
			delete(cl.buckets, addr)
		}
	}
}

func (cl *clientLimiter) runEviction(ctx context.Context) {
	ticker := time.NewTicker(idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.evictIdle()
		}
	}
}

// RateLimit returns middleware allowing each client address rps requests per
// second with bursts of up to burst. Idle clients are evicted until ctx is
// done. Rejected requests get 429 with a Retry-After header.
func RateLimit(ctx context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	cl := newClientLimiter(rps, burst)
	go cl.runEviction(ctx)

	retryAfter := "1"
	if rps > 0 && rps < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / rps)))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.allow(clientAddr(r)) {
				w.Header().Set("Retry-After", retryAfter)
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
