// Package state persists governance records using SQLite or PostgreSQL.
// Both backends implement core.Store over the tables data_lineage,
// model_data_lineage, risk_assessments, security_assessments, audit_log,
// and models.
package state

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	dbStore
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{dbStore: dbStore{rebind: rebindSQLite}}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// An in-memory database exists per connection; the pool must not
	// hand out a second one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection. Used in tests.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// rebindSQLite leaves ? placeholders untouched.
func rebindSQLite(query string) string { return query }
