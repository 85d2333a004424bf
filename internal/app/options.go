package service

import (
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/internal/adapters/mq/queue"
	"github.com/okian/leadgate/internal/adapters/mq/worker"
	"github.com/okian/leadgate/internal/adapters/repository"
	"github.com/okian/leadgate/internal/domain/ratelimit"
	"github.com/okian/leadgate/internal/domain/scoring"
	"github.com/okian/leadgate/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLimiter replaces the default memory-only limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Service) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithCounterMemory hands the service the memory table behind its limiter
// so Start and Stop run its sweeper.
func WithCounterMemory(m *counter.Memory) Option {
	return func(s *Service) {
		if m != nil {
			s.memory = m
		}
	}
}

// WithLimits sets per-endpoint quotas. Non-positive fields keep their default.
func WithLimits(l Limits) Option {
	return func(s *Service) {
		s.limits = s.limits.merge(l)
	}
}

// WithScorer sets the category table used for leads and chat.
func WithScorer(t *scoring.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.scorer = t
		}
	}
}

// WithHoneypotField sets the hidden form field bots tend to fill.
func WithHoneypotField(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.honeypot = name
		}
	}
}

// WithLeadStore sets the lead repository.
func WithLeadStore(store repository.LeadStore) Option {
	return func(s *Service) {
		if store != nil {
			s.leads = store
		}
	}
}

// WithEventStore sets the analytics repository.
func WithEventStore(store repository.EventStore) Option {
	return func(s *Service) {
		if store != nil {
			s.events = store
		}
	}
}

// WithCompleter sets the chat completion backend.
func WithCompleter(c Completer) Option {
	return func(s *Service) {
		if c != nil {
			s.completer = c
		}
	}
}

// WithNotifications wires the notification queue and the pool draining it.
func WithNotifications(q queue.Queue, pool *worker.Pool) Option {
	return func(s *Service) {
		s.queue = q
		s.pool = pool
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
