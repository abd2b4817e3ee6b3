package driven

import (
	"context"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

// QueryLogStore persists the local query history behind a narrow
// read/append interface. This is an optional capability - when nil,
// queries are simply not recorded.
type QueryLogStore interface {
	// Save appends a query record.
	Save(ctx context.Context, record domain.QueryRecord) error

	// List returns the most recent records, newest first, up to limit.
	List(ctx context.Context, limit int) ([]domain.QueryRecord, error)

	// Close releases resources.
	Close() error
}
