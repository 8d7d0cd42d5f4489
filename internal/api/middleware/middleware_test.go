// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/streamhub/internal/cache"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("keeps incoming", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/title/1?mediaType=tv", nil))

	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"uri":"/api/title/1?mediaType=tv"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	rl := NewIPRateLimiter(2)
	defer rl.Close()

	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	request := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/trending", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, request("10.0.0.1:1000"))
	assert.Equal(t, http.StatusNoContent, request("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:1002"))
	assert.Equal(t, http.StatusNoContent, request("10.0.0.2:1000"), "buckets are per client")
}

func TestCache(t *testing.T) {
	rc := cache.New(time.Minute, nil)
	defer rc.Close()

	calls := 0
	status := http.StatusOK
	handler := Cache(rc, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"data":[1]}`))
	}))

	get := func(target string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := get("/api/trending", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, cacheMiss, first.Header().Get(CacheHeader))
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := get("/api/trending", nil)
	assert.Equal(t, cacheHit, second.Header().Get(CacheHeader))
	assert.Equal(t, `{"data":[1]}`, second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	notModified := get("/api/trending", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Empty(t, notModified.Body.String())

	get("/api/trending?page=2", nil)
	assert.Equal(t, 2, calls, "query string is part of the key")

	status = http.StatusBadGateway
	failed := get("/api/search?q=x", nil)
	assert.Equal(t, http.StatusBadGateway, failed.Code)
	assert.Empty(t, failed.Header().Get(CacheHeader))
	get("/api/search?q=x", nil)
	assert.Equal(t, 4, calls, "errors are not cached")
}

func TestCache_ExpiresAfterRouteTTL(t *testing.T) {
	rc := cache.New(5*time.Minute, nil)
	defer rc.Close()

	calls := 0
	handler := Cache(rc, 300*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))

	get := func() string {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=dune", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		return rec.Header().Get(CacheHeader)
	}

	require.Equal(t, cacheMiss, get())
	require.Equal(t, cacheHit, get())

	// Steady reads must not keep the entry alive.
	assert.Eventually(t, func() bool {
		return get() == cacheMiss
	}, 3*time.Second, 25*time.Millisecond)
	assert.Equal(t, 2, calls)
}
