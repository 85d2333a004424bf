// Package sqldb opens and migrates the SQL database shared by the durable
// counter log and the lead repositories.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/okian/leadgate/pkg/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	pingTimeout     = 10 * time.Second
	connMaxLifetime = time.Hour
)

// DB wraps a *sql.DB with the dialect it speaks.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to dsn using driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	driver = strings.TrimSpace(driver)
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// sqlite allows a single writer; one connection also keeps :memory:
	// databases alive for the pool's lifetime.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=10000"); err != nil {
			logger.Get().Named("sqldb").Warn(ctx, "failed to set busy timeout", logger.Error(err))
		}
	}

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the driver name.
func (d *DB) Driver() string {
	if d == nil {
		return ""
	}
	return d.driver
}

// Rebind rewrites ? placeholders into the driver's bind syntax.
func (d *DB) Rebind(query string) string {
	if d == nil || d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close releases database resources.
func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
