package sqldb

import (
	"context"
	"fmt"
)

// Timestamps are stored as unix milliseconds so both dialects compare them
// the same way.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rate_limits (
		"key" TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_rate_limits_lookup ON rate_limits("key", endpoint, created_at);`,
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		block TEXT NOT NULL,
		conversation_id TEXT,
		conversation TEXT NOT NULL DEFAULT '[]',
		score INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT 'chatbot',
		status TEXT NOT NULL DEFAULT 'new',
		created_at BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);`,
	`CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at);`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		session_id TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_events_type ON analytics_events(event_type, created_at);`,
}

// Migrate ensures the required tables exist.
func (d *DB) Migrate(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
