// Package worker delivers queued lead notifications to the configured
// notifiers.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/leadgate/internal/adapters/mq/queue"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Notification abstracts what workers read off the queue.
type Notification = queue.Notification

// Notifier delivers one notification to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// InMemoryWorker drains the queue and fans each notification out to every
// notifier. A notifier failure is logged and does not stop the others.
type InMemoryWorker struct {
	queue     Queue
	notifiers []Notifier
	pacer     *rate.Limiter
	name      string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, notifiers []Notifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		notifiers: notifiers,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run delivers notifications until the queue is closed and drained or ctx
// is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-items:
			if !ok {
				return
			}
			if err := w.deliver(ctx, n); err != nil {
				w.logger.Error(ctx, "notification delivery stopped", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) deliver(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	if w.pacer != nil {
		if err := w.pacer.Wait(ctx); err != nil {
			metrics.RecordQueueDropped("pacer")
			return fmt.Errorf("wait for delivery slot: %w", err)
		}
	}

	for _, nt := range w.notifiers {
		if err := nt.Notify(ctx, n); err != nil {
			metrics.RecordNotificationError(nt.Name())
			w.logger.Error(ctx, "notifier failed",
				logger.String("notifier", nt.Name()),
				logger.String("lead_id", n.LeadID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotificationSent(nt.Name())
	}
	return nil
}

// Pool manages multiple workers sharing one delivery pace.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates workerCount workers over q. A positive perSecond caps the
// combined delivery rate of the pool.
func NewPool(workerCount int, q Queue, notifiers []Notifier, perSecond float64) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	var pacer *rate.Limiter
	if perSecond > 0 {
		burst := max(1, int(perSecond))
		pacer = rate.NewLimiter(rate.Limit(perSecond), burst)
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, notifiers,
			WithName("worker-"+strconv.Itoa(i)),
			WithPacer(pacer),
		)
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
