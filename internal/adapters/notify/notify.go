// Package notify announces new leads to staff channels.
package notify

import (
	"context"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/scoring"
	"github.com/okian/leadgate/pkg/logger"
)

// LogNotifier writes each lead as a structured log line. It is always
// enabled so a lead is never silent even without a webhook.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier returns a notifier writing to l, or the global logger when l is nil.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Get().Named("notify")
	}
	return &LogNotifier{logger: l}
}

// Name returns "log".
func (n *LogNotifier) Name() string { return "log" }

// Notify logs the lead. The address is omitted.
func (n *LogNotifier) Notify(ctx context.Context, lead model.LeadNotification) error { //nolint:gocritic // hugeParam: value matches the queue payload
	n.logger.Info(ctx, "new lead",
		logger.String("lead_id", lead.LeadID),
		logger.String("name", lead.Name),
		logger.String("block", string(lead.Block)),
		logger.Int("score", lead.Score),
		logger.String("tier", string(scoring.TierOf(lead.Score))),
		logger.String("source", lead.Source),
	)
	return nil
}
