package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
)

// MemoryStore keeps leads and events in process memory. It backs local runs
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	leads   map[string]*model.Lead // by id
	byEmail map[string]string      // email -> id
	events  []model.AnalyticsEvent
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:   make(map[string]*model.Lead),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (model.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.Lead{}, ErrNotFound
	}
	return cloneLead(s.leads[id]), nil
}

func (s *MemoryStore) Insert(_ context.Context, lead model.Lead) (model.Lead, error) {
	lead, err := prepareLead(lead, s.now())
	if err != nil {
		return model.Lead{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[lead.Email]; ok {
		return model.Lead{}, ErrDuplicate
	}
	stored := cloneLead(&lead)
	s.leads[lead.ID] = &stored
	s.byEmail[lead.Email] = lead.ID
	return lead, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.LeadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, now time.Time) (model.LeadStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st model.LeadStats
	for _, l := range s.leads {
		if l.Status == model.LeadArchived {
			continue
		}
		st.Total++
		if !l.CreatedAt.Before(now.Add(-statsWeek)) {
			st.ThisWeek++
		}
		if !l.CreatedAt.Before(now.Add(-statsDay)) {
			st.Last24Hours++
		}
		if st.Latest == nil || l.CreatedAt.After(*st.Latest) {
			t := l.CreatedAt
			st.Latest = &t
		}
	}
	return st, nil
}

func (s *MemoryStore) RecordAnalytics(_ context.Context, event model.AnalyticsEvent) error {
	event, err := prepareEvent(event, s.now())
	if err != nil {
		return err
	}
	event.Metadata = maps.Clone(event.Metadata)

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded analytics events.
func (s *MemoryStore) Events() []model.AnalyticsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Count returns the number of stored leads, archived included.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

func cloneLead(l *model.Lead) model.Lead {
	out := *l
	out.Conversation = slices.Clone(l.Conversation)
	return out
}
