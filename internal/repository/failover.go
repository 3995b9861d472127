package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"stayhub/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLocker prefers the primary locker and falls back to the secondary
// while the primary is failing. Tokens remember which side issued them.
type FailoverLocker struct {
	primary  domain.Locker
	fallback domain.Locker
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	issued    sync.Map // token -> bool (true if fallback)
}

func NewFailoverLocker(primary, fallback domain.Locker, logger *zerolog.Logger) *FailoverLocker {
	return &FailoverLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// NewSweepLocker prefers Redis so replicas share the sweep lock and falls
// back to an in-process lock while Redis is unreachable. Without a client
// the lock only serializes sweeps inside this process.
func NewSweepLocker(client *redis.Client, logger *zerolog.Logger) domain.Locker {
	memory := NewMemoryLocker()
	if client == nil {
		return memory
	}
	return NewFailoverLocker(NewRedisLocker(client), memory, logger)
}

func (l *FailoverLocker) markDown(err error) {
	l.logger.Error().Err(err).Msg("Primary locker failed, falling back to memory")
	l.isDown.Store(true)
	l.mu.Lock()
	l.lastCheck = time.Now()
	l.mu.Unlock()
}

// shouldRetryPrimary reports whether enough time has passed since the last
// failure to probe the primary again.
func (l *FailoverLocker) shouldRetryPrimary() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCheck) <= recoveryInterval {
		return false
	}
	l.lastCheck = time.Now()
	return true
}

func (l *FailoverLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if !l.isDown.Load() || l.shouldRetryPrimary() {
		token, ok, err := l.primary.TryLock(ctx, key, ttl)
		if err == nil {
			if l.isDown.Swap(false) {
				l.logger.Info().Msg("Primary locker recovered")
			}
			if ok {
				l.issued.Store(token, false)
			}
			return token, ok, nil
		}
		l.markDown(err)
	}

	token, ok, err := l.fallback.TryLock(ctx, key, ttl)
	if err == nil && ok {
		l.issued.Store(token, true)
	}
	return token, ok, err
}

func (l *FailoverLocker) Unlock(ctx context.Context, key, token string) error {
	fromFallback, known := l.issued.LoadAndDelete(token)
	if known && fromFallback.(bool) {
		return l.fallback.Unlock(ctx, key, token)
	}

	if err := l.primary.Unlock(ctx, key, token); err != nil {
		// ключ истечёт сам по TTL
		l.logger.Warn().Err(err).Str("key", key).Msg("Failed to release lock on primary")
		return err
	}
	return nil
}
