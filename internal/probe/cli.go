package probe

import (
	"os"
)

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`leadgate admission probe
========================

Fires concurrent requests at one endpoint from a single client address and
checks that exactly -limit of them are admitted within one window.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -endpoint string
        chat, leads, events or stats (default "leads")
  -requests int
        Number of requests to fire (default 20)
  -concurrency int
        Requests in flight at once (default 8)
  -limit int
        Expected admissions; 0 skips the check (default 5)
  -ip string
        Client address sent as X-Forwarded-For (default "198.51.100.77")
  -timeout duration
        Per-request timeout (default 10s)
  -verbose
        Log every response
  -help
        Show this help message

Examples:
  # Leads allow 5 per minute per address
  go run ./cmd/probe -endpoint leads -requests 20 -limit 5

  # Stats allow 20 per minute per address
  go run ./cmd/probe -endpoint stats -requests 50 -limit 20 -concurrency 16
`)
}
