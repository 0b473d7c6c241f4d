package handler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/attendly/backend/pkg/json"
	"github.com/attendly/backend/pkg/token"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticate verifies the bearer token and stores the caller identity in
// the request context. Requests without a valid token are rejected.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("access denied"))
			return
		}

		ident, err := token.Verify(raw, h.jwtSecret)
		if err != nil {
			h.log.Warn("token verification failed", "error", err)
			json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("access denied"))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", fmt.Errorf("malformed authorization header")
	}
	return raw, nil
}

func callerIdentity(ctx context.Context) *token.Identity {
	ident, _ := ctx.Value(identityKey).(*token.Identity)
	return ident
}

const (
	// A bucket idle this long has refilled to full burst, so dropping it is
	// the same as recreating it on the next request.
	bucketIdleTTL    = 3 * time.Minute
	bucketSweepEvery = time.Minute
)

// rateLimiter is a per-client token bucket keyed by remote IP. Idle buckets
// are swept so the map does not grow with every client ever seen.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64
	burst     float64
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*bucket),
		rate:      float64(perMinute) / 60.0,
		burst:     float64(perMinute),
		lastSweep: time.Now(),
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) >= bucketSweepEvery {
		for k, b := range l.buckets {
			if now.Sub(b.last) >= bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimit rejects clients that exceed perMinute requests with 429.
func (h *Handler) RateLimit(perMinute int) func(http.Handler) http.Handler {
	limiter := newRateLimiter(perMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !limiter.allow(host) {
				json.WriteError(w, http.StatusTooManyRequests, fmt.Errorf("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
