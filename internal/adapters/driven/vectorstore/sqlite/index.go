// Package sqlite provides a SQLite-backed vector index.
//
// Embeddings are stored as little-endian float32 blobs next to chunk
// metadata; similarity search decodes and scores them in Go. An exact
// scan is fine at private-corpus scale and keeps the index a single
// portable file. The metadata filter is pushed into the SQL query so
// filtered searches only decode matching rows.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/halcyon-labs/docvault/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// dimensionsKey is the index_meta row holding the vector dimensionality.
const dimensionsKey = "vector_dim"

// Index is a SQLite-backed implementation of driven.VectorIndex.
type Index struct {
	db         *sql.DB
	path       string
	dimensions int
}

// New opens (or creates) a vector index at the given data directory.
// If dataDir is empty, defaults to ~/.docvault/data. Dimensionality is
// fixed on first creation; reopening with a different value is a hard
// error because stored vectors would be incomparable.
func New(dataDir string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("vector index: dimensions must be positive, got %d", dimensions)
	}

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

	dbPath := filepath.Join(dataDir, "vectors.db")

	// WAL mode lets queries run in parallel with ingestion writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ix := &Index{db: db, path: dbPath, dimensions: dimensions}

	if err := ix.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := ix.pinDimensions(dimensions); err != nil {
		db.Close()
		return nil, err
	}

	return ix, nil
}

// pinDimensions records the dimensionality on first open and verifies
// it on subsequent opens.
func (ix *Index) pinDimensions(want int) error {
	var stored int
	err := ix.db.QueryRow(
		"SELECT value FROM index_meta WHERE key = ?", dimensionsKey,
	).Scan(&stored)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = ix.db.Exec(
			"INSERT INTO index_meta (key, value) VALUES (?, ?)", dimensionsKey, want)
		if err != nil {
			return fmt.Errorf("recording dimensions: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading dimensions: %w", err)
	case stored != want:
		return fmt.Errorf("%w: index was created with %d dimensions, embedder produces %d",
			domain.ErrDimensionMismatch, stored, want)
	default:
		return nil
	}
}

// migrate runs all pending migrations.
func (ix *Index) migrate(fsys embed.FS) error {
	_, err := ix.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := ix.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := ix.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := ix.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or overwrites the vector and metadata for a chunk.
func (ix *Index) Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error {
	if len(vector) != ix.dimensions {
		return fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), ix.dimensions)
	}

	if chunk.DateAdded.IsZero() {
		chunk.DateAdded = time.Now().UTC()
	}

	var page sql.NullInt64
	if chunk.PageNumber != nil {
		page = sql.NullInt64{Int64: int64(*chunk.PageNumber), Valid: true}
	}

	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO chunks (id, source, page_number, sequence_index, text, date_added, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			page_number = excluded.page_number,
			sequence_index = excluded.sequence_index,
			text = excluded.text,
			date_added = excluded.date_added,
			embedding = excluded.embedding
	`, chunk.ID, chunk.Source, page, chunk.SequenceIndex, chunk.Text,
		chunk.DateAdded, float32SliceToBytes(vector))

	if err != nil {
		return fmt.Errorf("%w: upserting chunk: %v", domain.ErrIndex, err)
	}
	return nil
}

// Search scans stored vectors, scoring those that satisfy the filter.
func (ix *Index) Search(ctx context.Context, vector []float32, k int, filter domain.QueryFilter) ([]driven.VectorHit, error) {
	if len(vector) != ix.dimensions {
		return nil, fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), ix.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	query := "SELECT id, source, page_number, sequence_index, text, date_added, embedding FROM chunks"
	var conds []string
	var args []any
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.MinPage != nil {
		conds = append(conds, "page_number >= ?")
		args = append(args, *filter.MinPage)
	}
	if filter.MaxPage != nil {
		conds = append(conds, "page_number <= ?")
		args = append(args, *filter.MaxPage)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %v", domain.ErrIndex, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var page sql.NullInt64
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Source, &page, &chunk.SequenceIndex,
			&chunk.Text, &chunk.DateAdded, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %v", domain.ErrIndex, err)
		}
		if page.Valid {
			p := int(page.Int64)
			chunk.PageNumber = &p
		}

		hits = append(hits, driven.VectorHit{
			Chunk:      chunk,
			Similarity: cosine(vector, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunks: %v", domain.ErrIndex, err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Chunk.SequenceIndex != hits[j].Chunk.SequenceIndex {
			return hits[i].Chunk.SequenceIndex < hits[j].Chunk.SequenceIndex
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteBySource removes all chunks from the named source document.
func (ix *Index) DeleteBySource(ctx context.Context, source string) (int, error) {
	res, err := ix.db.ExecContext(ctx, "DELETE FROM chunks WHERE source = ?", source)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %v", domain.ErrIndex, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: counting deleted chunks: %v", domain.ErrIndex, err)
	}
	return int(n), nil
}

// Count returns the number of stored chunks.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", domain.ErrIndex, err)
	}
	return n, nil
}

// Dimensions returns the fixed vector dimensionality.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Path returns the database file path.
func (ix *Index) Path() string {
	return ix.path
}

// Close closes the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// cosine returns cosine similarity clamped to [0,1].
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
