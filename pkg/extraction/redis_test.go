package extraction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands the coordinator issues. Any other
// call panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "set", key, value, "px", expiration.Milliseconds(), "nx")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	if _, held := f.keys[key]; held {
		cmd.SetVal(false)
		return cmd
	}
	f.keys[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var removed int64
	for _, k := range keys {
		if _, held := f.keys[k]; held {
			delete(f.keys, k)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func (f *fakeRedis) ttlOf(key string) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ttl, ok := f.keys[key]
	return ttl, ok
}

func TestRedisCoordinatorBusyUntilRelease(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRedisCoordinator(rdb, 45*time.Second)
	session, participant := uuid.New(), uuid.New()

	ok, err := c.TryAcquire(ctx, session, participant)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryAcquire(ctx, session, participant)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must report busy")

	ttl, held := rdb.ttlOf(lockKey(session, participant))
	require.True(t, held)
	assert.Equal(t, 45*time.Second, ttl)

	require.NoError(t, c.Release(ctx, session, participant))

	ok, err = c.TryAcquire(ctx, session, participant)
	require.NoError(t, err)
	assert.True(t, ok, "acquire after release must succeed")
}

func TestRedisCoordinatorKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCoordinator(newFakeRedis(), time.Minute)
	session := uuid.New()

	ok, err := c.TryAcquire(ctx, session, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryAcquire(ctx, session, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCoordinatorDefaultsTTL(t *testing.T) {
	rdb := newFakeRedis()
	c := NewRedisCoordinator(rdb, 0)
	session, participant := uuid.New(), uuid.New()

	ok, err := c.TryAcquire(context.Background(), session, participant)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, _ := rdb.ttlOf(lockKey(session, participant))
	assert.Equal(t, DefaultTTL, ttl)
}

func TestRedisCoordinatorReleaseWithoutLock(t *testing.T) {
	c := NewRedisCoordinator(newFakeRedis(), time.Minute)
	assert.NoError(t, c.Release(context.Background(), uuid.New(), uuid.New()))
}

func TestRedisCoordinatorSurfacesConnectionErrors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("dial tcp: connection refused")
	c := NewRedisCoordinator(rdb, time.Minute)

	ok, err := c.TryAcquire(context.Background(), uuid.New(), uuid.New())
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, c.Release(context.Background(), uuid.New(), uuid.New()))
}
