package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/leadgate/internal/adapters/sqldb"
	"github.com/okian/leadgate/internal/domain/model"
)

// SQLStore persists leads and events in the leads and analytics_events
// tables created by sqldb.Migrate.
type SQLStore struct {
	db  *sqldb.DB
	now func() time.Time
}

// NewSQLStore returns a store over a migrated database.
func NewSQLStore(db *sqldb.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (model.Lead, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT id, name, email, block, conversation_id, conversation, score, source, status, created_at
		FROM leads
		WHERE email = ?
		ORDER BY created_at ASC
		LIMIT 1`), strings.ToLower(strings.TrimSpace(email)))

	var (
		lead           model.Lead
		conversationID sql.NullString
		conversation   string
		createdAt      int64
	)
	err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Block, &conversationID,
		&conversation, &lead.Score, &lead.Source, &lead.Status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Lead{}, ErrNotFound
		}
		return model.Lead{}, fmt.Errorf("find lead: %w", err)
	}
	lead.ConversationID = conversationID.String
	lead.CreatedAt = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(conversation), &lead.Conversation); err != nil {
		return model.Lead{}, fmt.Errorf("decode conversation: %w", err)
	}
	return lead, nil
}

// Insert checks for an existing email before writing. Two concurrent
// inserts for one email can both pass that check; the caller's email
// throttle bounds how often that can happen.
func (s *SQLStore) Insert(ctx context.Context, lead model.Lead) (model.Lead, error) {
	lead, err := prepareLead(lead, s.now())
	if err != nil {
		return model.Lead{}, err
	}
	if _, err := s.FindByEmail(ctx, lead.Email); err == nil {
		return model.Lead{}, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return model.Lead{}, err
	}

	conversation, err := json.Marshal(nonNilMessages(lead.Conversation))
	if err != nil {
		return model.Lead{}, fmt.Errorf("encode conversation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO leads (id, name, email, block, conversation_id, conversation, score, source, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		lead.ID, lead.Name, lead.Email, string(lead.Block), nullString(lead.ConversationID),
		string(conversation), lead.Score, lead.Source, string(lead.Status), lead.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return model.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE leads SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Stats(ctx context.Context, now time.Time) (model.LeadStats, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
			MAX(created_at)
		FROM leads
		WHERE status <> ?`),
		now.Add(-statsWeek).UnixMilli(), now.Add(-statsDay).UnixMilli(), string(model.LeadArchived),
	)

	var (
		st     model.LeadStats
		latest sql.NullInt64
	)
	if err := row.Scan(&st.Total, &st.ThisWeek, &st.Last24Hours, &latest); err != nil {
		return model.LeadStats{}, fmt.Errorf("lead stats: %w", err)
	}
	if latest.Valid {
		t := time.UnixMilli(latest.Int64).UTC()
		st.Latest = &t
	}
	return st, nil
}

func (s *SQLStore) RecordAnalytics(ctx context.Context, event model.AnalyticsEvent) error {
	event, err := prepareEvent(event, s.now())
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO analytics_events (id, event_type, session_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		event.ID, string(event.Type), nullString(event.SessionID), string(metadata), event.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNilMessages(m []model.Message) []model.Message {
	if m == nil {
		return []model.Message{}
	}
	return m
}
