package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/backend/pkg/token"
)

const testSecret = "handler-test-secret"

func testHandler() *Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(nil, nil, log, testSecret)
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := callerIdentity(r.Context())
		if ident == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, ident.ID)
	})
}

func TestAuthenticate(t *testing.T) {
	h := testHandler()
	protected := h.Authenticate(echoIdentity())

	t.Run("valid token", func(t *testing.T) {
		raw, err := token.Generate("u-1", "alice@example.com", testSecret, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-1", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw, err := token.Generate("u-1", "alice@example.com", "other-secret", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	h := testHandler()
	limited := h.RateLimit(3)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, request("10.0.0.1:1234"))
	}
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:1234"))

	// A different client has its own bucket.
	assert.Equal(t, http.StatusOK, request("10.0.0.2:1234"))
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	limiter := newRateLimiter(10)

	require.True(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	limiter.buckets["10.0.0.1"].last = time.Now().Add(-2 * bucketIdleTTL)
	limiter.lastSweep = time.Now().Add(-2 * bucketSweepEvery)

	require.True(t, limiter.allow("10.0.0.3"))

	_, stale := limiter.buckets["10.0.0.1"]
	assert.False(t, stale, "idle bucket survived the sweep")
	assert.Contains(t, limiter.buckets, "10.0.0.2")
	assert.Contains(t, limiter.buckets, "10.0.0.3")
}
