// Package extraction guards expensive derived computations (need extraction,
// overlap analysis) against duplicate concurrent runs for the same key.
//
// A lock is granted when none exists for the key or the existing one is older
// than the TTL. Stale locks expire so a crashed computation cannot wedge a key;
// expiry is a liveness safeguard and gives no mutual exclusion guarantee for
// work that outlives the TTL.
package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = 60 * time.Second

type Coordinator interface {
	// TryAcquire reports whether the caller now owns the key. false means busy.
	TryAcquire(ctx context.Context, sessionId, participantId uuid.UUID) (bool, error)
	// Release clears the key unconditionally. Callers release in a defer.
	Release(ctx context.Context, sessionId, participantId uuid.UUID) error
}

func lockKey(sessionId, participantId uuid.UUID) string {
	return fmt.Sprintf("extraction:%s:%s", sessionId, participantId)
}
