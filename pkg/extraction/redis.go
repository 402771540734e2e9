package extraction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCoordinator shares locks across replicas with SET NX PX. Expiry is
// enforced by redis itself.
type RedisCoordinator struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCoordinator(rdb redis.Cmdable, ttl time.Duration) *RedisCoordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCoordinator{rdb: rdb, ttl: ttl}
}

func (c *RedisCoordinator) TryAcquire(ctx context.Context, sessionId, participantId uuid.UUID) (bool, error) {
	startedAt := time.Now().UTC().Format(time.RFC3339Nano)
	return c.rdb.SetNX(ctx, lockKey(sessionId, participantId), startedAt, c.ttl).Result()
}

func (c *RedisCoordinator) Release(ctx context.Context, sessionId, participantId uuid.UUID) error {
	return c.rdb.Del(ctx, lockKey(sessionId, participantId)).Err()
}
