package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/leadgate/internal/probe"
	"github.com/okian/leadgate/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests    = 20
	defaultConcurrency = 8
	defaultLimit       = 5
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 2 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		endpoint    = flag.String("endpoint", probe.EndpointLeads, "Endpoint to probe: chat, leads, events or stats")
		requests    = flag.Int("requests", defaultRequests, "Number of requests to fire")
		concurrency = flag.Int("concurrency", defaultConcurrency, "Requests in flight at once")
		limit       = flag.Int("limit", defaultLimit, "Expected admissions; 0 skips the check")
		clientIP    = flag.String("ip", "198.51.100.77", "Client address sent as X-Forwarded-For")
		timeout     = flag.Duration("timeout", defaultTimeout, "Per-request timeout")
		verbose     = flag.Bool("verbose", false, "Log every response")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &probe.Config{
		BaseURL:     *baseURL,
		Endpoint:    *endpoint,
		Requests:    *requests,
		Concurrency: *concurrency,
		Limit:       *limit,
		ClientIP:    *clientIP,
		Timeout:     *timeout,
		Verbose:     *verbose,
	}

	if _, err := probe.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("probe failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
