package counter

import (
	"context"
	"sync"
	"time"

	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
)

const defaultSweepInterval = time.Minute

type window struct {
	mu      sync.Mutex
	start   time.Time
	count   int
	size    time.Duration
	evicted bool
}

// Memory is a per-process fixed-window counter table. Each key has its own
// lock; the table lock only guards membership.
type Memory struct {
	mu      sync.Mutex
	windows map[Key]*window

	now        func() time.Time
	sweepEvery time.Duration
	logger     logger.Logger

	lifecycle sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// NewMemory creates an empty table. Call Start to run the sweeper.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		windows:    make(map[Key]*window),
		now:        time.Now,
		sweepEvery: defaultSweepInterval,
		logger:     logger.Get().Named("counter.memory"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns BackendMemory.
func (m *Memory) Name() string { return BackendMemory }

// Hit counts one request against key. A window older than its size is
// replaced by a fresh one starting at now. Hit never fails for a positive window.
func (m *Memory) Hit(_ context.Context, key Key, now time.Time, size time.Duration) (Tally, error) {
	if size <= 0 {
		return Tally{}, ErrInvalidWindow
	}
	for {
		w := m.load(key)
		w.mu.Lock()
		if w.evicted {
			// swept between load and lock; pick up the replacement
			w.mu.Unlock()
			continue
		}
		if w.count == 0 || now.Sub(w.start) > size {
			w.start = now
			w.count = 0
		}
		w.count++
		w.size = size
		t := Tally{Count: w.count, ResetAt: w.start.Add(size)}
		w.mu.Unlock()
		return t, nil
	}
}

func (m *Memory) load(key Key) *window {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key]
	if !ok {
		w = &window{}
		m.windows[key] = w
	}
	return w
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Sweep evicts every window that closed before the current time and returns
// how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	evicted := 0
	for k, w := range m.windows {
		w.mu.Lock()
		if w.count == 0 || now.Sub(w.start) > w.size {
			w.evicted = true
			delete(m.windows, k)
			evicted++
		}
		w.mu.Unlock()
	}
	remaining := len(m.windows)
	m.mu.Unlock()

	metrics.RecordMemoryEvictions(evicted)
	metrics.UpdateMemoryKeys(remaining)
	return evicted
}

// Start runs the sweeper until ctx is done or Stop is called. Calling Start
// on a running table is a no-op.
func (m *Memory) Start(ctx context.Context) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(ctx, m.stop, m.done)
}

// Stop halts the sweeper and waits for it to exit.
func (m *Memory) Stop() {
	m.lifecycle.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.lifecycle.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *Memory) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug(ctx, "evicted expired windows", logger.Int("evicted", n))
			}
		}
	}
}
