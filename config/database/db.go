// Package database opens the configured journal backing store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"haven/config"
	"haven/pkg/logger"
	"haven/store"
	"haven/store/memory"
	"haven/store/sqlstore"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// RetryDelay is the pause between failed connection attempts.
var RetryDelay = 2 * time.Second

// OpenSQL opens and pings a SQL database for cfg, retrying up to
// cfg.Retries times.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, sqlstore.Dialect, error) {
	var (
		dialect sqlstore.Dialect
		dsn     string
	)
	switch cfg.Driver {
	case "postgres":
		dialect, dsn = sqlstore.Postgres, cfg.PostgresURL()
	case "sqlite":
		dialect, dsn = sqlstore.SQLite, sqlstore.SQLiteDSN(cfg.SQLitePath)
	default:
		return nil, sqlstore.Dialect{}, fmt.Errorf("driver %q is not a SQL database", cfg.Driver)
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, dialect, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect.Name == sqlstore.SQLite.Name {
		// One writer keeps SQLite from returning SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	}

	attempts := max(cfg.Retries, 1)
	for i := 1; ; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Infof("Successfully connected to the %s database", dialect.Name)
			return db, dialect, nil
		}
		if i >= attempts {
			break
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", RetryDelay, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, dialect, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
	db.Close()
	return nil, dialect, fmt.Errorf("could not connect to %s after %d attempts: %w", dialect.Name, attempts, err)
}

// Open returns the store.Store selected by cfg.Driver. SQL schemas are
// migrated before the store is handed out.
func Open(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	if cfg.Driver == "memory" {
		logger.Sugar.Warn("Using the in-memory store; entries are lost on restart")
		return memory.New(), nil
	}

	db, dialect, err := OpenSQL(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	return sqlstore.New(db, dialect), nil
}
