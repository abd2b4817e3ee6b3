// Package sqlite provides a SQLite-backed query history store.
//
// The history replaces the original UI's ambient client-side cache
// with an explicit, versioned local store behind a narrow
// read/append interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.QueryLogStore = (*Store)(nil)

// schema is versioned in user_version; bump when the table changes.
const schemaVersion = 1

// Store is a SQLite-backed implementation of driven.QueryLogStore.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the query log at the given data directory.
// If dataDir is empty, defaults to ~/.docvault/data.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docvault", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "querylog.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating query log: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS query_records (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			sources TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_query_records_created_at
			ON query_records(created_at DESC);
		PRAGMA user_version = 1
	`)
	if err != nil {
		return fmt.Errorf("creating query_records table: %w", err)
	}
	return nil
}

// Save appends a query record. An empty ID or zero timestamp is
// filled in here so callers can stay oblivious to storage concerns.
func (s *Store) Save(ctx context.Context, record domain.QueryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	sourcesJSON, err := json.Marshal(record.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_records (id, question, answer, sources, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, record.Question, record.Answer, string(sourcesJSON), record.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving query record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, sources, created_at
		FROM query_records
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.QueryRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var record domain.QueryRecord
		var sourcesJSON string
		if err := rows.Scan(&record.ID, &record.Question, &record.Answer,
			&sourcesJSON, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &record.Sources); err != nil {
			return nil, fmt.Errorf("unmarshaling sources: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
