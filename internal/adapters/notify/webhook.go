package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/scoring"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultTimeZone       = "America/Toronto"
)

// WebhookNotifier posts Slack block-kit messages to an incoming webhook.
type WebhookNotifier struct {
	url          string
	dashboardURL string
	client       *http.Client
	loc          *time.Location
}

// WebhookOption applies a configuration option to the WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient sets the client used for delivery.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		if c != nil {
			w.client = c
		}
	}
}

// WithDashboardURL adds a "View in Dashboard" button linking to url.
func WithDashboardURL(url string) WebhookOption {
	return func(w *WebhookNotifier) {
		w.dashboardURL = url
	}
}

// WithLocation sets the time zone used for the timestamp line.
func WithLocation(loc *time.Location) WebhookOption {
	return func(w *WebhookNotifier) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// NewWebhookNotifier returns a notifier posting to url.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: defaultWebhookTimeout},
		loc:    time.UTC,
	}
	if loc, err := time.LoadLocation(defaultTimeZone); err == nil {
		w.loc = loc
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns "webhook".
func (w *WebhookNotifier) Name() string { return "webhook" }

// Notify posts the lead. Any non-2xx response is an error.
func (w *WebhookNotifier) Notify(ctx context.Context, lead model.LeadNotification) error { //nolint:gocritic // hugeParam: value matches the queue payload
	body, err := json.Marshal(w.message(lead))
	if err != nil {
		return fmt.Errorf("encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

type textObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type block struct {
	Type     string         `json:"type"`
	Text     *textObject    `json:"text,omitempty"`
	Fields   []textObject   `json:"fields,omitempty"`
	Elements []blockElement `json:"elements,omitempty"`
}

type blockElement struct {
	Type     string `json:"type"`
	Text     any    `json:"text"`
	URL      string `json:"url,omitempty"`
	ActionID string `json:"action_id,omitempty"`
}

type slackMessage struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

func (w *WebhookNotifier) message(lead model.LeadNotification) slackMessage { //nolint:gocritic // hugeParam: value matches the queue payload
	tier := scoring.TierOf(lead.Score)
	source := lead.Source
	if source == "" {
		source = "chatbot"
	}
	created := lead.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	title := fmt.Sprintf("%s New Lead: %s", tier.Emoji(), lead.Name)

	blocks := []block{
		{Type: "header", Text: &textObject{Type: "plain_text", Text: title, Emoji: true}},
		{Type: "section", Fields: []textObject{
			{Type: "mrkdwn", Text: "*Email:*\n" + lead.Email},
			{Type: "mrkdwn", Text: "*Program:*\n" + lead.Block.Label()},
			{Type: "mrkdwn", Text: fmt.Sprintf("*Lead Score:*\n%d", lead.Score)},
			{Type: "mrkdwn", Text: "*Source:*\n" + source},
		}},
		{Type: "context", Elements: []blockElement{
			{Type: "mrkdwn", Text: ":clock1: " + created.In(w.loc).Format("Mon, Jan 2, 03:04 PM")},
		}},
	}
	if w.dashboardURL != "" {
		blocks = append(blocks, block{Type: "actions", Elements: []blockElement{{
			Type:     "button",
			Text:     textObject{Type: "plain_text", Text: "View in Dashboard", Emoji: true},
			URL:      w.dashboardURL,
			ActionID: "view_dashboard",
		}}})
	}
	return slackMessage{Text: title, Blocks: blocks}
}
