package llm

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if u := strings.TrimSpace(url); u != "" {
			c.baseURL = u
		}
	}
}

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithTimeout bounds one completion round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(p string) Option {
	return func(c *Client) {
		if strings.TrimSpace(p) != "" {
			c.systemPrompt = p
		}
	}
}

// WithExamples adds few-shot turns sent after the system prompt.
func WithExamples(examples []model.Message) Option {
	return func(c *Client) {
		c.examples = append([]model.Message(nil), examples...)
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}
