package worker

import (
	"golang.org/x/time/rate"

	"github.com/okian/leadgate/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPacer shares a token bucket that every delivery waits on.
func WithPacer(p *rate.Limiter) Option {
	return func(w *InMemoryWorker) {
		w.pacer = p
	}
}
