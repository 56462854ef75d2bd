package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"voice-campaign-platform/pkg/utils"
)

// PollLimiter gates poll-loop spawn so peak concurrency is bounded by a
// configured cap instead of roster size. Acquire blocks until a slot frees
// up or ctx is done; the returned release func gives the slot back.
type PollLimiter interface {
	Acquire(ctx context.Context) (release func(), err error)
}

func nopRelease() {}

// RedisPollLimiter is a redis-counted cap shared by every poll goroutine in
// the process. The slot TTL protects against leaked slots on crash; size it
// above the worst-case poll duration (max attempts x interval).
type RedisPollLimiter struct {
	rdb   *redis.Client
	key   string
	limit int
	ttl   time.Duration

	// retryInterval is the wait between acquire attempts when the cap is
	// saturated.
	retryInterval time.Duration

	log *slog.Logger
}

func NewRedisPollLimiter(rdb *redis.Client, key string, limit int, ttl time.Duration, log *slog.Logger) *RedisPollLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RedisPollLimiter{
		rdb:           rdb,
		key:           key,
		limit:         limit,
		ttl:           ttl,
		retryInterval: 250 * time.Millisecond,
		log:           log,
	}
}

func (l *RedisPollLimiter) Acquire(ctx context.Context) (func(), error) {
	for {
		ok, err := utils.AcquireConcurrencyCap(ctx, l.rdb, l.key, l.limit, l.ttl)
		if err != nil {
			// Fail open: a redis hiccup must not stall call tracking.
			// The slot was not taken, so there is nothing to release.
			l.log.Warn("poll limiter acquire failed, proceeding uncapped", "err", err)
			return nopRelease, nil
		}
		if ok {
			return func() {
				if err := utils.ReleaseConcurrencyCap(context.WithoutCancel(ctx), l.rdb, l.key); err != nil {
					l.log.Warn("poll limiter release failed", "err", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nopRelease, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}
