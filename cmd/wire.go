package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/internal/adapters/http/api"
	"github.com/okian/leadgate/internal/adapters/http/swagger"
	"github.com/okian/leadgate/internal/adapters/llm"
	"github.com/okian/leadgate/internal/adapters/mq/queue"
	"github.com/okian/leadgate/internal/adapters/mq/worker"
	"github.com/okian/leadgate/internal/adapters/notify"
	"github.com/okian/leadgate/internal/adapters/repository"
	"github.com/okian/leadgate/internal/adapters/sqldb"
	app "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/config"
	"github.com/okian/leadgate/internal/domain/ratelimit"
	"github.com/okian/leadgate/internal/domain/scoring"
	"github.com/okian/leadgate/pkg/logger"
)

// application is the wired process: the admission service, its HTTP
// handler and everything that must be closed on shutdown.
type application struct {
	svc     *app.Service
	handler http.Handler
	queue   *queue.InMemoryQueue
	closers []func() error
}

// Close releases storage and cache connections in reverse order.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// build wires every adapter selected by cfg.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	a := &application{}

	var (
		db      *sqldb.DB
		leads   repository.LeadStore
		events  repository.EventStore
		durable counter.Store
	)

	switch cfg.StoreDriver {
	case config.StorePostgres, config.StoreSQLite:
		var err error
		db, err = sqldb.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate store: %w", err)
		}
		store := repository.NewSQLStore(db)
		leads, events = store, store
		log.Info(ctx, "using sql store", logger.String("driver", cfg.StoreDriver))
	default:
		store := repository.NewMemoryStore()
		leads, events = store, store
		log.Info(ctx, "using memory store")
	}

	switch cfg.CounterBackend {
	case config.CounterSQL:
		durable = counter.NewDurable(counter.NewSQLLog(db))
	case config.CounterRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		durable = counter.NewDurable(counter.NewRedisLog(client, counter.WithRetention(cfg.RedisRetention())))
	}

	memory := counter.NewMemory(
		counter.WithSweepInterval(cfg.SweepInterval()),
		counter.WithLogger(log.Named("counter")),
	)
	limiterOpts := []ratelimit.Option{
		ratelimit.WithDurableTimeout(cfg.DurableTimeout()),
		ratelimit.WithLogger(log.Named("ratelimit")),
	}
	if durable != nil {
		limiterOpts = append(limiterOpts, ratelimit.WithDurable(durable))
		log.Info(ctx, "durable counters enabled", logger.String("backend", cfg.CounterBackend))
	}
	limiter := ratelimit.New(memory, limiterOpts...)

	notifiers := []worker.Notifier{notify.NewLogNotifier(log.Named("notify"))}
	if cfg.NotifyWebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.NotifyWebhookURL,
			notify.WithDashboardURL(cfg.NotifyDashboardURL),
		))
	}
	a.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.NotifyQueueSize))
	pool := worker.NewPool(cfg.NotifyWorkers, a.queue, notifiers, cfg.NotifyRatePerSec)

	completer := llm.NewClient(cfg.LLMAPIKey,
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithModel(cfg.LLMModel),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithSystemPrompt(cfg.LLMSystemPrompt),
	)

	a.svc = app.New(
		app.WithLogger(log.Named("service")),
		app.WithLimiter(limiter),
		app.WithCounterMemory(memory),
		app.WithLimits(app.Limits{
			Chat:       cfg.ChatLimit,
			Leads:      cfg.LeadsLimit,
			Events:     cfg.EventsLimit,
			Stats:      cfg.StatsLimit,
			EmailDaily: cfg.EmailDailyLimit,
			Window:     cfg.RateWindow(),
		}),
		app.WithScorer(scoring.DefaultTable(scoring.WithWeights(cfg.ScoreWeights))),
		app.WithHoneypotField(cfg.HoneypotField),
		app.WithLeadStore(leads),
		app.WithEventStore(events),
		app.WithCompleter(completer),
		app.WithNotifications(a.queue, pool),
	)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(a.svc,
		api.WithCORSOrigin(cfg.CORSOrigin),
		api.WithHoneypotField(cfg.HoneypotField),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)
	a.handler = mux

	return a, nil
}
