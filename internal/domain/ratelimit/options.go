package ratelimit

import (
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/pkg/logger"
)

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithDurable sets the cross-instance store tried before memory.
func WithDurable(s counter.Store) Option {
	return func(l *Limiter) {
		if s != nil {
			l.durable = s
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithDurableTimeout bounds one durable round trip.
func WithDurableTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.durableTimeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Limiter) {
		if lg != nil {
			l.logger = lg
		}
	}
}
