package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/leadgate/pkg/metrics"
)

// EventLog is an append-only log of counted requests shared by every
// process instance.
type EventLog interface {
	// CountInWindow returns how many events were recorded for key at or after since.
	CountInWindow(ctx context.Context, key Key, since time.Time) (int, error)
	// RecordEvent appends one event for key at the given instant.
	RecordEvent(ctx context.Context, key Key, at time.Time) error
	// Kind names the storage technology, e.g. "sql" or "redis".
	Kind() string
}

// Durable counts against an EventLog: it reads the number of events in the
// trailing window, then appends one. Concurrent callers may both read the
// same count before either appends, so a burst can briefly exceed a limit.
type Durable struct {
	log EventLog
}

// NewDurable wraps log as a Store.
func NewDurable(log EventLog) *Durable {
	return &Durable{log: log}
}

// Name returns BackendDurable.
func (d *Durable) Name() string { return BackendDurable }

// Kind returns the underlying log's storage kind.
func (d *Durable) Kind() string { return d.log.Kind() }

// Hit counts one request. Any log failure is wrapped in ErrBackendUnavailable.
func (d *Durable) Hit(ctx context.Context, key Key, now time.Time, size time.Duration) (Tally, error) {
	if size <= 0 {
		return Tally{}, ErrInvalidWindow
	}
	start := time.Now()
	defer func() {
		metrics.RecordDurableLatency(d.log.Kind(), float64(time.Since(start).Milliseconds()))
	}()

	n, err := d.log.CountInWindow(ctx, key, now.Add(-size))
	if err != nil {
		return Tally{}, fmt.Errorf("%w: count %s: %w", ErrBackendUnavailable, key, err)
	}
	if err := d.log.RecordEvent(ctx, key, now); err != nil {
		return Tally{}, fmt.Errorf("%w: record %s: %w", ErrBackendUnavailable, key, err)
	}
	return Tally{Count: n + 1, ResetAt: now.Add(size)}, nil
}
