// Package database centralises sqlx connection helpers.  The default driver
// is lib/pq (Postgres), which is where the catalog has always lived;
// go-sql-driver/mysql is accepted for MariaDB deployments.
//
// Public entry points:
//
//	Open(driver, dsn)                      – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, opt) – fine-grained control.
//	Migrate(ctx, db)                       – create catalog tables if missing.
//
// Both Open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Options tunes the pool and the bootstrap ping.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra Ping attempts after the first
	RetryBackoff    time.Duration // doubled after every failed attempt
}

// DefaultOptions: 15 max open, 5 idle, and a 30-minute connection lifetime.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         2,
	RetryBackoff:    500 * time.Millisecond,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(context.Background(), driver, dsn, DefaultOptions)
}

// OpenWithOptions opens a pool for driver ("postgres" or "mysql") and pings
// it, retrying with exponential backoff.
func OpenWithOptions(ctx context.Context, driver, dsn string, opt Options) (*sqlx.DB, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opt.MaxOpenConns)
	db.SetMaxIdleConns(opt.MaxIdleConns)
	db.SetConnMaxLifetime(opt.ConnMaxLifetime)

	backoff := opt.RetryBackoff
	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= opt.Retries {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	db.Close()
	return nil, fmt.Errorf("ping %s: %w", driver, err)
}
