// Package store is the SQLite persistence layer for leadscout.
//
// Four tables keyed by the signal URL: signals, enrichments, scores and
// outreach, plus a runs table recording pipeline executions. Every mutating
// method commits before it returns.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/leadscout/dbopen"
)

// ErrDataIntegrity marks malformed input or stored data: out-of-range
// scores, unknown enum values, constraint violations and undecodable JSON
// columns. It is never retried.
var ErrDataIntegrity = errors.New("store: data integrity")

// Store is the leadscout database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// NewStore wraps an already-opened database. The schema must be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func integrityf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataIntegrity, fmt.Sprintf(format, args...))
}

// classify wraps SQLite constraint failures in ErrDataIntegrity and leaves
// every other error (I/O, permissions, closed db) untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%w: %s: %v", ErrDataIntegrity, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
