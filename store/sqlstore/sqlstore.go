// Package sqlstore implements store.Store on database/sql. Queries are
// written once with $n placeholders and rebound per Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"regexp"
	"time"

	"haven/store"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Name string
	// DriverName is the database/sql driver registered for this dialect.
	DriverName string
	// numbered rewrites $n to ?n for drivers without $n support.
	numbered  bool
	chatOrder string
	schema    []string
}

var (
	Postgres = Dialect{
		Name:       "postgres",
		DriverName: "postgres",
		chatOrder:  "created_at ASC, seq ASC",
		schema:     postgresSchema,
	}
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		numbered:   true,
		chatOrder:  "created_at ASC, rowid ASC",
		schema:     sqliteSchema,
	}
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?$1")
}

type Store struct {
	DB      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{DB: db, dialect: dialect, now: time.Now}
}

// WithClock returns a copy of the store using now for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// timestamp is truncated to the microsecond precision Postgres stores, so
// values handed back from Create match what a later Get returns.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.DB.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.DB.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.DB.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// SQLiteDSN builds a modernc.org/sqlite DSN for path with foreign keys on.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
