package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cache := NewTTLCache[string](time.Minute, clock)

	cache.Set("k", "v")
	v, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, ok = cache.Get("k")
	assert.False(t, ok, "entry expires exactly at the TTL boundary")
	assert.Equal(t, 0, cache.Len(), "expired entry removed on access")
}

func TestTTLCacheSetResetsWindow(t *testing.T) {
	now := time.Now()
	cache := NewTTLCache[int](time.Minute, func() time.Time { return now })

	cache.Set("k", 1)
	now = now.Add(30 * time.Second)
	cache.Set("k", 2)
	now = now.Add(45 * time.Second)

	v, ok := cache.Get("k")
	assert.True(t, ok, "rewrite restarts the expiry window")
	assert.Equal(t, 2, v)
}

func TestTTLCacheInvalidate(t *testing.T) {
	cache := NewTTLCache[string](time.Minute, nil)
	cache.Set("k", "v")
	cache.Invalidate("k")

	_, ok := cache.Get("k")
	assert.False(t, ok)
}
