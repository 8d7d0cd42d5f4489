// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupRecorder struct {
	hits, misses int
	lastEntries  int
}

func (r *lookupRecorder) ObserveCache(hit bool, entries int) {
	r.lastEntries = entries
	if hit {
		r.hits++
		return
	}
	r.misses++
}

func TestResponseCache_GetSet(t *testing.T) {
	recorder := &lookupRecorder{}
	c := New(time.Minute, recorder)
	defer c.Close()

	_, ok := c.Get("/api/trending")
	assert.False(t, ok)

	body := []byte(`{"data":[]}`)
	stored := c.Set("/api/trending", body, "application/json", 0)
	body[0] = 'X'

	got, ok := c.Get("/api/trending")
	require.True(t, ok)
	assert.Equal(t, `{"data":[]}`, string(got.Body), "cache keeps its own copy")
	assert.Equal(t, "application/json", got.ContentType)
	assert.Equal(t, stored.ETag, got.ETag)

	assert.Equal(t, 1, recorder.hits)
	assert.Equal(t, 1, recorder.misses)
	assert.Equal(t, 1, recorder.lastEntries)
}

func TestResponseCache_Expiry(t *testing.T) {
	t.Run("reads do not extend the lifetime", func(t *testing.T) {
		c := New(time.Minute, nil)
		defer c.Close()

		c.Set("/api/search?q=a", []byte("a"), "application/json", 200*time.Millisecond)

		_, ok := c.Get("/api/search?q=a")
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			_, ok := c.Get("/api/search?q=a")
			return !ok
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("short ttl under a long default", func(t *testing.T) {
		c := New(5*time.Minute, nil)
		defer c.Close()

		c.Set("/api/search?q=b", []byte("b"), "application/json", 300*time.Millisecond)
		c.Set("/api/trending", []byte("t"), "application/json", 0)

		time.Sleep(time.Second)

		_, ok := c.Get("/api/search?q=b")
		assert.False(t, ok)
		_, ok = c.Get("/api/trending")
		assert.True(t, ok, "default ttl entry survives")
	})

	t.Run("deadline checked on read", func(t *testing.T) {
		c := New(time.Minute, nil)
		defer c.Close()

		c.Set("/api/most-watched", []byte("m"), "application/json", time.Hour)

		_, ok := c.Get("/api/most-watched")
		require.True(t, ok)

		c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, ok = c.Get("/api/most-watched")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("reset with a new ttl replaces the old entry", func(t *testing.T) {
		c := New(time.Minute, nil)
		defer c.Close()

		c.Set("/api/platforms", []byte("old"), "application/json", time.Hour)
		c.Set("/api/platforms", []byte("new"), "application/json", 2*time.Hour)

		got, ok := c.Get("/api/platforms")
		require.True(t, ok)
		assert.Equal(t, "new", string(got.Body))
		assert.Equal(t, 1, c.Len())
	})
}

func TestResponseCache_InvalidatePrefix(t *testing.T) {
	c := New(time.Minute, nil)
	defer c.Close()

	c.Set("/api/recommendations", []byte("1"), "application/json", 0)
	c.Set("/api/recommendations?x=1", []byte("2"), "application/json", 0)
	c.Set("/api/trending", []byte("3"), "application/json", 0)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.InvalidatePrefix("/api/recommendations"))
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("/api/trending")
	assert.True(t, ok)
}

func TestETag(t *testing.T) {
	assert.Equal(t, ETag([]byte("same")), ETag([]byte("same")))
	assert.NotEqual(t, ETag([]byte("one")), ETag([]byte("two")))
	assert.Regexp(t, `^"[0-9a-f]{16}"$`, ETag([]byte("x")))
}
