// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/metrics"
)

// Defaults used when options leave a field unset.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 400
	DefaultTemperature = 0.6
	DefaultTimeout     = 30 * time.Second

	maxErrorBody = 2048
)

// DefaultSystemPrompt frames the assistant when no prompt is configured.
const DefaultSystemPrompt = `You are the digital assistant for The Landings Golf Course in Kingston, Ontario.
You help visitors learn about the 2026 Indoor Winter Golf School and guide them toward registration.
Instruction is by PGA of Canada professionals. Facilities include two ForeSight launch monitors,
a golf simulator and unlimited practice during the membership period.
Programs: Full 10-week membership (January 12 - March 22), Session 1 (January 12 - February 15)
and Session 2 (February 16 - March 22).
Keep answers short and friendly, and when a visitor sounds ready, invite them to register.`

// Client is an OpenAI-compatible completion client.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	maxTokens    int
	temperature  float64
	timeout      time.Duration
	systemPrompt string
	examples     []model.Message
	httpClient   *http.Client
}

// NewClient returns a client with defaults applied.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		apiKey:       strings.TrimSpace(apiKey),
		model:        DefaultModel,
		maxTokens:    DefaultMaxTokens,
		temperature:  DefaultTemperature,
		timeout:      DefaultTimeout,
		systemPrompt: DefaultSystemPrompt,
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete asks for the assistant's reply to message given the prior
// conversation. The request is system prompt, examples, history, message.
func (c *Client) Complete(ctx context.Context, history []model.Message, message string) (reply string, err error) {
	if c == nil || c.apiKey == "" {
		return "", ErrNotConfigured
	}

	start := time.Now()
	defer func() {
		metrics.RecordCompletion(err == nil, float64(time.Since(start).Milliseconds()))
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(c.buildRequest(history, message))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(string(respBody))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(history []model.Message, message string) chatCompletionRequest {
	msgs := make([]chatMessage, 0, len(c.examples)+len(history)+2)
	if c.systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: string(model.RoleSystem), Content: c.systemPrompt})
	}
	for _, m := range c.examples {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	for _, m := range history {
		role := model.RoleUser
		if m.Role == model.RoleAssistant {
			role = model.RoleAssistant
		}
		msgs = append(msgs, chatMessage{Role: string(role), Content: m.Content})
	}
	msgs = append(msgs, chatMessage{Role: string(model.RoleUser), Content: message})

	return chatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
}
