package state

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// PostgresStore implements core.Store using PostgreSQL via pgx.
type PostgresStore struct {
	dbStore
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store instance.
func NewPostgresStore() *PostgresStore {
	return &PostgresStore{dbStore: dbStore{rebind: rebindPostgres}}
}

// Open opens a connection using a pgx DSN or key=value connection string.
func (s *PostgresStore) Open(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.db = db
	s.dsn = dsn
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebindPostgres rewrites ? placeholders to $1..$n.
func rebindPostgres(query string) string {
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
