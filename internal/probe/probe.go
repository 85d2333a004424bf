package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/leadgate/pkg/logger"
)

type request struct {
	method string
	path   string
	body   func(i int) any
}

func target(endpoint string) (request, error) {
	switch endpoint {
	case EndpointChat:
		return request{http.MethodPost, "/api/chat", func(int) any {
			return map[string]any{"message": "What are your hours?", "history": []any{}}
		}}, nil
	case EndpointLeads:
		return request{http.MethodPost, "/api/leads", func(i int) any {
			return map[string]any{
				"name":           "Probe " + strconv.Itoa(i),
				"email":          fmt.Sprintf("probe-%s@example.com", uuid.NewString()),
				"block":          "undecided",
				"conversationId": uuid.NewString(),
				"messages":       []any{},
			}
		}}, nil
	case EndpointEvents:
		return request{http.MethodPost, "/api/events", func(int) any {
			return map[string]any{"event_type": "widget_open", "session_id": uuid.NewString()}
		}}, nil
	case EndpointStats:
		return request{http.MethodGet, "/api/stats", nil}, nil
	default:
		return request{}, fmt.Errorf("%w: unknown endpoint %q", ErrInvalidConfig, endpoint)
	}
}

// Run checks service health, fires the configured requests concurrently and
// compares the admitted count with the expected limit.
func Run(ctx context.Context, cfg *Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	log := logger.Get().Named("probe")
	client := &http.Client{Timeout: cfg.Timeout}
	base := strings.TrimRight(cfg.BaseURL, "/")

	if err := checkHealth(ctx, client, base); err != nil {
		return Report{}, err
	}

	t, _ := target(cfg.Endpoint)
	log.Info(ctx, "starting admission probe",
		logger.String("endpoint", cfg.Endpoint),
		logger.Int("requests", cfg.Requests),
		logger.Int("concurrency", cfg.Concurrency),
		logger.String("client_ip", cfg.ClientIP),
	)

	var (
		mu  sync.Mutex
		rep Report
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := 0; i < cfg.Requests; i++ {
		g.Go(func() error {
			status, retryAfter, err := send(gctx, client, base, t, i, cfg.ClientIP)
			mu.Lock()
			defer mu.Unlock()
			rep.Sent++
			switch {
			case err != nil:
				rep.Failed++
				if cfg.Verbose {
					log.Warn(gctx, "request failed", logger.Int("n", i), logger.Error(err))
				}
			case status == http.StatusTooManyRequests:
				rep.Denied++
				rep.MaxRetryAfter = max(rep.MaxRetryAfter, retryAfter)
			default:
				// Anything the limiter let through counts, whatever the handler said.
				rep.Admitted++
			}
			if cfg.Verbose && err == nil {
				log.Debug(gctx, "response", logger.Int("n", i), logger.Int("status", status))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("probe: %w", err)
	}
	rep.Duration = time.Since(start)

	log.Info(ctx, "probe finished",
		logger.Int("sent", rep.Sent),
		logger.Int("admitted", rep.Admitted),
		logger.Int("denied", rep.Denied),
		logger.Int("failed", rep.Failed),
		logger.Int("max_retry_after", rep.MaxRetryAfter),
		logger.Duration("duration", rep.Duration),
	)

	if cfg.Limit > 0 && rep.Admitted != min(cfg.Limit, cfg.Requests-rep.Failed) {
		return rep, fmt.Errorf("%w: admitted %d, limit %d", ErrLimitMismatch, rep.Admitted, cfg.Limit)
	}
	return rep, nil
}

func checkHealth(ctx context.Context, client *http.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// send performs one request and returns its status and Retry-After value.
func send(ctx context.Context, client *http.Client, base string, t request, i int, clientIP string) (int, int, error) {
	var body io.Reader = http.NoBody
	if t.body != nil {
		data, err := json.Marshal(t.body(i))
		if err != nil {
			return 0, 0, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, t.method, base+t.path, body)
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	return resp.StatusCode, retryAfter, nil
}
