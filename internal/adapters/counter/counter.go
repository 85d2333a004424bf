// Package counter implements the counting backends behind admission control:
// a per-process memory table and durable append-only event logs.
package counter

import (
	"context"
	"time"
)

// Backend names reported on decisions and metrics.
const (
	BackendMemory  = "memory"
	BackendDurable = "durable"
)

// Key identifies one counter. Namespace separates limits that must never
// share counts (an endpoint name, or the email submission namespace).
type Key struct {
	Namespace string
	ID        string
}

func (k Key) String() string {
	return k.Namespace + ":" + k.ID
}

// Tally is the state of a key's window after one unit was consumed.
type Tally struct {
	// Count includes the unit consumed by this call.
	Count int
	// ResetAt is when the window that produced Count closes.
	ResetAt time.Time
}

// Store consumes one unit of quota for key at now and reports the tally.
type Store interface {
	Hit(ctx context.Context, key Key, now time.Time, window time.Duration) (Tally, error)
	Name() string
}
