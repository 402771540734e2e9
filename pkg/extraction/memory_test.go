package extraction

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func TestMemoryCoordinatorBusyUntilRelease(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator(time.Minute)
	session, participant := uuid.New(), uuid.New()

	ok, err := c.TryAcquire(ctx, session, participant)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryAcquire(ctx, session, participant)
	require.NoError(t, err)
	assert.False(t, ok, "second caller must see busy")

	require.NoError(t, c.Release(ctx, session, participant))

	ok, err = c.TryAcquire(ctx, session, participant)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCoordinatorKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator(time.Minute)
	session := uuid.New()

	ok, _ := c.TryAcquire(ctx, session, uuid.New())
	assert.True(t, ok)
	ok, _ = c.TryAcquire(ctx, session, uuid.New())
	assert.True(t, ok)
	ok, _ = c.TryAcquire(ctx, uuid.New(), uuid.Nil)
	assert.True(t, ok)
}

func TestMemoryCoordinatorStaleLockIsAvailable(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCoordinator(60*time.Second, WithClock(clock.Now))
	session, participant := uuid.New(), uuid.New()

	ok, _ := c.TryAcquire(ctx, session, participant)
	require.True(t, ok)

	clock.Advance(59 * time.Second)
	ok, _ = c.TryAcquire(ctx, session, participant)
	assert.False(t, ok)

	clock.Advance(2 * time.Second)
	ok, _ = c.TryAcquire(ctx, session, participant)
	assert.True(t, ok, "lock older than the TTL must be granted again")
}

func TestMemoryCoordinatorReleaseWithoutLock(t *testing.T) {
	c := NewMemoryCoordinator(0)
	assert.NoError(t, c.Release(context.Background(), uuid.New(), uuid.New()))
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestMemoryCoordinatorGrantsOnceUnderContention(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator(time.Minute)
	session, participant := uuid.New(), uuid.New()

	var granted int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.TryAcquire(ctx, session, participant); ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted)
	assert.Equal(t, 1, c.Len())
}
