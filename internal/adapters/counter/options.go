package counter

import (
	"time"

	"github.com/okian/leadgate/pkg/logger"
)

// MemoryOption applies a configuration option to Memory.
type MemoryOption func(*Memory)

// WithClock sets the time source used by the sweeper.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSweepInterval sets how often expired windows are evicted.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		if d > 0 {
			m.sweepEvery = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) MemoryOption {
	return func(m *Memory) {
		if l != nil {
			m.logger = l
		}
	}
}

// RedisOption applies a configuration option to RedisLog.
type RedisOption func(*RedisLog)

// WithRetention sets a TTL refreshed on every write so idle keys expire.
func WithRetention(d time.Duration) RedisOption {
	return func(r *RedisLog) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithKeyPrefix sets the prefix for every sorted set key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisLog) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}
