package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTTL(t *testing.T, ttl, cleanup time.Duration, options ...Option[string]) Cache[string] {
	t.Helper()
	c, err := NewTTL[string](context.Background(), ttl, cleanup, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTTLCache_SetGet(t *testing.T) {
	c := newTestTTL(t, time.Minute, time.Minute)

	created, err := c.Set("booknet:genre:fantasy", "payload")
	require.NoError(t, err)
	assert.True(t, created)

	// Overwriting an existing key is an update, not a create
	created, err = c.Set("booknet:genre:fantasy", "payload2")
	require.NoError(t, err)
	assert.False(t, created)

	v, ok := c.Get("booknet:genre:fantasy")
	assert.True(t, ok)
	assert.Equal(t, "payload2", v)

	_, ok = c.Get("booknet:genre:horror")
	assert.False(t, ok)
}

func TestTTLCache_EmptyKey(t *testing.T) {
	c := newTestTTL(t, time.Minute, time.Minute)

	_, err := c.Set("", "value")
	assert.Error(t, err)

	_, err = c.Delete("")
	assert.Error(t, err)
}

func TestTTLCache_Expiration(t *testing.T) {
	c := newTestTTL(t, 20*time.Millisecond, time.Hour)

	_, err := c.Set("key", "value")
	require.NoError(t, err)

	v, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("key")
	assert.False(t, ok, "expired entry should not be returned")
	assert.Equal(t, 0, c.Size())
}

func TestTTLCache_BackgroundCleanup(t *testing.T) {
	c := newTestTTL(t, 10*time.Millisecond, 20*time.Millisecond)

	_, err := c.Set("key", "value")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return c.Size() == 0
	}, time.Second, 10*time.Millisecond, "background cleanup should remove expired entry")
}

func TestTTLCache_Delete(t *testing.T) {
	c := newTestTTL(t, time.Minute, time.Minute)

	_, err := c.Set("key", "value")
	require.NoError(t, err)

	deleted, err := c.Delete("key")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.Delete("key")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTTLCache_Clear(t *testing.T) {
	c := newTestTTL(t, time.Minute, time.Minute)

	for _, key := range []string{"a", "b", "c"} {
		_, err := c.Set(key, "value")
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Size())

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Keys())
}

func TestTTLCache_EvictionCallback(t *testing.T) {
	var mu sync.Mutex
	var evicted []string

	c := newTestTTL(t, time.Minute, time.Minute,
		WithEvictionCallback[string](func(key string, _ string) {
			mu.Lock()
			evicted = append(evicted, key)
			mu.Unlock()
		}))

	_, err := c.Set("key", "value")
	require.NoError(t, err)

	_, err = c.Delete("key")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"key"}, evicted)
}

func TestTTLCache_Stats(t *testing.T) {
	c := newTestTTL(t, time.Minute, time.Minute)

	_, err := c.Set("key", "value")
	require.NoError(t, err)

	c.Get("key")     // hit
	c.Get("missing") // miss

	stats := c.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.Hits())
	assert.Equal(t, int64(1), stats.Misses())
	assert.Equal(t, int64(1), stats.Sets())
	assert.InDelta(t, 0.5, stats.HitRatio(), 0.001)
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := newTestTTL(t, time.Minute, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune('a' + j%26))
				_, _ = c.Set(key, "value")
				c.Get(key)
				_, _ = c.Delete(key)
			}
		}()
	}
	wg.Wait()
}

func TestNoopCache(t *testing.T) {
	c := NewNoop[string]()

	created, err := c.Set("key", "value")
	require.NoError(t, err)
	assert.False(t, created)

	_, ok := c.Get("key")
	assert.False(t, ok)

	assert.Equal(t, 0, c.Size())
	assert.Nil(t, c.Stats())
	assert.NoError(t, c.Close())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Enabled: true, TTL: time.Hour, CleanupInterval: time.Minute}, false},
		{"disabled skips validation", Config{Enabled: false}, false},
		{"zero ttl", Config{Enabled: true, TTL: 0, CleanupInterval: time.Minute}, true},
		{"zero cleanup", Config{Enabled: true, TTL: time.Hour, CleanupInterval: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_UnmarshalJSON_DurationStrings(t *testing.T) {
	var cfg Config
	err := cfg.UnmarshalJSON([]byte(`{"enabled":true,"ttl":"1h","cleanup_interval":"30s"}`))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.TTL)
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval)
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := NewFromConfig[string](ctx, Config{Enabled: true, TTL: time.Hour, CleanupInterval: time.Minute})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	_, ok := c.(*ttlCache[string])
	assert.True(t, ok)

	c, err = NewFromConfig[string](ctx, Config{Enabled: false})
	require.NoError(t, err)
	_, ok = c.(*noopCache[string])
	assert.True(t, ok)

	_, err = NewFromConfig[string](ctx, Config{Enabled: true, TTL: -1, CleanupInterval: time.Minute})
	assert.Error(t, err)
}
