package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/logger"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	return client, mr
}

func cleanupTestRedis(client *redis.Client, mr *miniredis.Miniredis) {
	if client != nil {
		client.Close()
	}
	if mr != nil {
		mr.Close()
	}
}

func TestOrderLock_Exclusive(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ctx := context.Background()
	l := NewOrderLock(client, time.Minute, logger.NewNop())

	ok, err := l.Lock(ctx, "o1", "waiter-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Lock(ctx, "o1", "waiter-b")
	require.NoError(t, err)
	assert.False(t, ok)

	// a different order is independent
	ok, err = l.Lock(ctx, "o2", "waiter-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderLock_UnlockChecksOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ctx := context.Background()
	l := NewOrderLock(client, time.Minute, logger.NewNop())

	_, err := l.Lock(ctx, "o1", "waiter-a")
	require.NoError(t, err)

	require.NoError(t, l.Unlock(ctx, "o1", "waiter-b"))
	locked, err := l.IsLocked(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, l.Unlock(ctx, "o1", "waiter-a"))
	locked, err = l.IsLocked(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, locked)

	assert.NoError(t, l.Unlock(ctx, "never-locked", "x"))
}

func TestOrderLock_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ctx := context.Background()
	l := NewOrderLock(client, 5*time.Second, logger.NewNop())

	_, err := l.Lock(ctx, "o1", "crashed")
	require.NoError(t, err)
	mr.FastForward(6 * time.Second)

	ok, err := l.Lock(ctx, "o1", "waiter-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderLock_ConcurrentSingleWinner(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ctx := context.Background()
	l := NewOrderLock(client, time.Minute, logger.NewNop())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := l.Lock(ctx, "hot", string(rune('a'+i)))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestOrderLock_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	mr.Close()

	_, err := NewOrderLock(client, time.Second, logger.NewNop()).Lock(context.Background(), "o1", "x")
	assert.Error(t, err)
}
