package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const scanLockKey = "scan:cycle:lock"

// ScanLock is a Redis advisory lock that keeps overlapping scan triggers
// (a slow previous cycle plus a new tick, or multiple replicas) from starting
// duplicate cycles. It is best-effort: correctness under overlap still rests
// on the store's conditional price update, the lock only avoids wasted fetches.
type ScanLock struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewScanLock creates a ScanLock. ttl should cover a full cycle budget so the
// lock expires on its own if a holder crashes.
func NewScanLock(redis *RedisClient, ttl time.Duration) *ScanLock {
	return &ScanLock{redis: redis, ttl: ttl}
}

// TryAcquire attempts to take the cycle lock. On success it returns true and
// a release func. On contention it returns false.
func (l *ScanLock) TryAcquire(ctx context.Context) (bool, func(), error) {
	holder := uuid.New().String()
	ok, err := l.redis.SetNX(ctx, scanLockKey, holder, l.ttl)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	release := func() {
		// Best-effort: if the TTL already expired and another holder took
		// over, deleting here could release their lock. The TTL is sized to
		// a full cycle budget, so in practice the holder is still us.
		if err := l.redis.Delete(context.Background(), scanLockKey); err != nil {
			log.Warn().Err(err).Msg("failed to release scan cycle lock")
		}
	}
	return true, release, nil
}
