package extraction

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemoryCoordinator is process-local. Two replicas can each grant the same key.
type MemoryCoordinator struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

type MemoryOption func(*MemoryCoordinator)

// WithClock injects the time source used to age locks.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCoordinator) {
		c.now = now
	}
}

func NewMemoryCoordinator(ttl time.Duration, opts ...MemoryOption) *MemoryCoordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCoordinator{
		// The janitor only reclaims memory; staleness is decided against startedAt.
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCoordinator) TryAcquire(_ context.Context, sessionId, participantId uuid.UUID) (bool, error) {
	key := lockKey(sessionId, participantId)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if v, found := c.cache.Get(key); found {
		startedAt := v.(time.Time)
		if now.Sub(startedAt) <= c.ttl {
			return false, nil
		}
	}
	c.cache.Set(key, now, c.ttl)
	return true, nil
}

func (c *MemoryCoordinator) Release(_ context.Context, sessionId, participantId uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Delete(lockKey(sessionId, participantId))
	return nil
}

// Len is the number of held or not yet reclaimed locks.
func (c *MemoryCoordinator) Len() int {
	return c.cache.ItemCount()
}
