package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-gateway-api/internal/logger"
)

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ms := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, ms.Set(ctx, "token", "abc", 60*time.Second))
	require.NoError(t, ms.Set(ctx, "forever", "x", 0))

	v, ok, err := ms.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	now = now.Add(59 * time.Second)
	_, ok, _ = ms.Get(ctx, "token")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = ms.Get(ctx, "token")
	assert.False(t, ok)

	_, ok, _ = ms.Get(ctx, "forever")
	assert.True(t, ok)

	assert.Equal(t, 1, ms.sweep())
	assert.Len(t, ms.data, 1)
}

func TestMemoryStore_SweeperEvictsInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ms := NewMemoryStore().WithClock(clock).WithLogger(logger.Discard())
	require.NoError(t, ms.Set(ctx, "billers", "{}", time.Minute))
	require.NoError(t, ms.Set(ctx, "forever", "x", 0))

	ms.StartSweeper(ctx, 5*time.Millisecond)
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	assert.Eventually(t, func() bool {
		ms.mu.RLock()
		defer ms.mu.RUnlock()
		_, ok := ms.data["billers"]
		return !ok && len(ms.data) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	require.NoError(t, ms.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, ms.Delete(ctx, "k"))
	_, ok, err := ms.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisStore(client)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "bill-gateway:gateway:token", "tok", 60*time.Second))
	v, ok, err := s.Get(ctx, "bill-gateway:gateway:token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
	assert.Equal(t, 60*time.Second, mr.TTL("bill-gateway:gateway:token"))

	mr.FastForward(61 * time.Second)
	_, ok, err = s.Get(ctx, "bill-gateway:gateway:token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}
