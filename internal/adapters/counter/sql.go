package counter

import (
	"context"
	"time"

	"github.com/okian/leadgate/internal/adapters/sqldb"
)

// SQLLog stores events as rows of the rate_limits table. Rows are never
// deleted here; retention is left to the database operator.
type SQLLog struct {
	db *sqldb.DB
}

// NewSQLLog returns a log over a migrated database.
func NewSQLLog(db *sqldb.DB) *SQLLog {
	return &SQLLog{db: db}
}

// Kind returns "sql".
func (s *SQLLog) Kind() string { return "sql" }

func (s *SQLLog) CountInWindow(ctx context.Context, key Key, since time.Time) (int, error) {
	if s.db == nil || s.db.DB == nil {
		return 0, sqldb.ErrNotInitialized
	}
	var n int
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT COUNT(*) FROM rate_limits WHERE "key" = ? AND endpoint = ? AND created_at >= ?`),
		key.ID, key.Namespace, since.UnixMilli(),
	).Scan(&n)
	return n, err
}

func (s *SQLLog) RecordEvent(ctx context.Context, key Key, at time.Time) error {
	if s.db == nil || s.db.DB == nil {
		return sqldb.ErrNotInitialized
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO rate_limits ("key", endpoint, created_at) VALUES (?, ?, ?)`),
		key.ID, key.Namespace, at.UnixMilli(),
	)
	return err
}
