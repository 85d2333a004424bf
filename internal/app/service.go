// Package service runs the admission pipeline in front of the chat, lead,
// analytics and stats endpoints.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/internal/adapters/mq/queue"
	"github.com/okian/leadgate/internal/adapters/mq/worker"
	"github.com/okian/leadgate/internal/adapters/repository"
	"github.com/okian/leadgate/internal/domain/botfilter"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/ratelimit"
	"github.com/okian/leadgate/internal/domain/scoring"
	"github.com/okian/leadgate/pkg/logger"
)

// Rate limit namespaces, one per public endpoint.
const (
	EndpointChat   = "chat"
	EndpointLeads  = "leads"
	EndpointEvents = "events"
	EndpointStats  = "stats"
)

// Completer produces the assistant's next chat reply.
type Completer interface {
	Complete(ctx context.Context, history []model.Message, message string) (string, error)
}

// Limits are the per-client quotas for each endpoint within Window, plus the
// daily per-email submission cap.
type Limits struct {
	Chat       int
	Leads      int
	Events     int
	Stats      int
	EmailDaily int
	Window     time.Duration
}

// DefaultLimits returns the stock quotas.
func DefaultLimits() Limits {
	return Limits{
		Chat:       10,
		Leads:      5,
		Events:     30,
		Stats:      20,
		EmailDaily: ratelimit.DefaultEmailDaily,
		Window:     ratelimit.DefaultWindow,
	}
}

func (l Limits) merge(o Limits) Limits {
	pick := func(cur, next int) int {
		if next > 0 {
			return next
		}
		return cur
	}
	l.Chat = pick(l.Chat, o.Chat)
	l.Leads = pick(l.Leads, o.Leads)
	l.Events = pick(l.Events, o.Events)
	l.Stats = pick(l.Stats, o.Stats)
	l.EmailDaily = pick(l.EmailDaily, o.EmailDaily)
	if o.Window > 0 {
		l.Window = o.Window
	}
	return l
}

// Service wires the admission stages to the downstream adapters.
type Service struct {
	mu      sync.Mutex
	started bool
	stopped bool

	limiter  *ratelimit.Limiter
	emails   *ratelimit.EmailThrottle
	memory   *counter.Memory
	scorer   *scoring.Table
	honeypot string
	limits   Limits

	leads     repository.LeadStore
	events    repository.EventStore
	completer Completer
	queue     queue.Queue
	pool      *worker.Pool

	now    func() time.Time
	logger logger.Logger
}

// New constructs a Service. Without options it counts in memory, stores
// leads in memory and has no completion backend or notifications.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:   scoring.DefaultTable(),
		honeypot: botfilter.DefaultHoneypotField,
		limits:   DefaultLimits(),
		now:      time.Now,
		logger:   logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.limiter == nil {
		if s.memory == nil {
			s.memory = counter.NewMemory(counter.WithClock(s.now))
		}
		s.limiter = ratelimit.New(s.memory, ratelimit.WithClock(s.now))
	}
	s.emails = ratelimit.NewEmailThrottle(s.limiter)

	if s.leads == nil || s.events == nil {
		store := repository.NewMemoryStore()
		if s.leads == nil {
			s.leads = store
		}
		if s.events == nil {
			s.events = store
		}
	}
	return s
}

// Start launches the counter sweeper and the notification workers. A
// stopped service cannot be restarted and returns ErrStopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}
	if s.memory != nil {
		s.memory.Start(ctx)
	}
	if s.pool != nil {
		s.pool.Start(ctx)
	}
	s.started = true
	s.logger.Info(ctx, "admission service started",
		logger.Int("chat_limit", s.limits.Chat),
		logger.Int("leads_limit", s.limits.Leads),
		logger.Int("email_daily_limit", s.limits.EmailDaily),
		logger.Duration("window", s.limits.Window),
	)
	return nil
}

// Stop drains pending notifications and stops the sweeper. The
// notification queue is closed, so Stop is final.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	if s.memory != nil {
		s.memory.Stop()
	}
	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "admission service stopped")
	return err
}

// Limits returns the effective quotas.
func (s *Service) Limits() Limits {
	return s.limits
}

// admit consumes one unit of clientID's quota for endpoint.
func (s *Service) admit(ctx context.Context, clientID, endpoint string, limit int) (ratelimit.Decision, error) {
	d, err := s.limiter.Check(ctx, clientID, endpoint, limit, s.limits.Window)
	if err != nil {
		return d, err
	}
	if !d.Allowed {
		s.logger.Debug(ctx, "request rate limited",
			logger.String("endpoint", endpoint),
			logger.Int("reset_in", d.ResetInSeconds),
		)
		return d, &RateLimitError{Endpoint: endpoint, Decision: d}
	}
	return d, nil
}
