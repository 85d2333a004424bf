package service

import (
	"context"
	"fmt"
	"time"
)

// Stats is the public registration counter.
type Stats struct {
	Total       int
	ThisWeek    int
	Last24Hours int
	// LastRegistration is a relative time such as "3 hours ago"; empty when
	// there are no leads.
	LastRegistration string
}

// Stats admits the request and summarizes non-archived leads.
func (s *Service) Stats(ctx context.Context, clientID string) (Stats, error) {
	if _, err := s.admit(ctx, clientID, EndpointStats, s.limits.Stats); err != nil {
		return Stats{}, err
	}

	now := s.now()
	st, err := s.leads.Stats(ctx, now)
	if err != nil {
		return Stats{}, fmt.Errorf("lead stats: %w", err)
	}

	out := Stats{Total: st.Total, ThisWeek: st.ThisWeek, Last24Hours: st.Last24Hours}
	if st.Latest != nil {
		out.LastRegistration = Ago(now.Sub(*st.Latest))
	}
	return out, nil
}

// Ago renders an elapsed duration the way the widget shows it.
func Ago(d time.Duration) string {
	hours := int(d / time.Hour)
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return plural(hours/24, "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
