// Package ratelimit decides whether a request fits inside its fixed-window
// quota. Every check first tries the durable backend and falls back to the
// process-local memory table when it fails.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
)

// Defaults used when a caller passes zero values.
const (
	DefaultWindow         = time.Minute
	DefaultDurableTimeout = 2 * time.Second
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed        bool
	Remaining      int
	ResetInSeconds int
	// Backend names the store that served the check.
	Backend string
}

// Limiter is a fixed-window limiter keyed by (client, endpoint).
type Limiter struct {
	durable counter.Store // nil when no durable backend is configured
	memory  counter.Store

	now            func() time.Time
	durableTimeout time.Duration
	logger         logger.Logger
}

// New creates a limiter. memory is required; durable may be set with
// WithDurable.
func New(memory counter.Store, opts ...Option) *Limiter {
	l := &Limiter{
		memory:         memory,
		now:            time.Now,
		durableTimeout: DefaultDurableTimeout,
		logger:         logger.Get().Named("ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check consumes one unit of the (clientID, endpoint) quota. A zero window
// means DefaultWindow. Check never returns an error for backend trouble; it
// only fails when ctx is already done.
func (l *Limiter) Check(ctx context.Context, clientID, endpoint string, maxRequests int, window time.Duration) (Decision, error) {
	key := counter.Key{Namespace: endpoint, ID: clientID + ":" + endpoint}
	return l.check(ctx, key, maxRequests, window)
}

func (l *Limiter) check(ctx context.Context, key counter.Key, maxRequests int, window time.Duration) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if maxRequests < 0 {
		maxRequests = 0
	}

	now := l.now()
	tally, backend, err := l.hit(ctx, key, now, window)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:        tally.Count <= maxRequests,
		Remaining:      max(0, maxRequests-tally.Count),
		ResetInSeconds: secondsUntil(now, tally.ResetAt),
		Backend:        backend,
	}
	metrics.RecordAdmission(key.Namespace, d.Allowed, backend)
	return d, nil
}

// hit tries the durable store once under a timeout and otherwise counts in
// memory. The memory fallback is per process, so a fleet of instances each
// enforce the limit separately while the durable store is down.
func (l *Limiter) hit(ctx context.Context, key counter.Key, now time.Time, window time.Duration) (counter.Tally, string, error) {
	if l.durable != nil {
		dctx, cancel := context.WithTimeout(ctx, l.durableTimeout)
		tally, err := l.durable.Hit(dctx, key, now, window)
		cancel()
		if err == nil {
			return tally, l.durable.Name(), nil
		}
		if ctx.Err() != nil {
			return counter.Tally{}, "", ctx.Err()
		}
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.RecordBackendFallback(key.Namespace, reason)
		l.logger.Warn(ctx, "durable counter failed, using memory",
			logger.String("namespace", key.Namespace),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}

	tally, err := l.memory.Hit(ctx, key, now, window)
	if err != nil {
		return counter.Tally{}, "", err
	}
	return tally, l.memory.Name(), nil
}

func secondsUntil(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
