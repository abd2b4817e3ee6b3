package driving

import (
	"context"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

// Ingestor runs documents through the ingestion pipeline: extraction,
// chunking, fingerprinting, embedding and indexing.
type Ingestor interface {
	// Ingest processes a batch of documents. Documents are isolated:
	// one document's failure never blocks the others. When some
	// documents fail, the returned error is a *domain.IngestError and
	// the result still describes what succeeded.
	//
	// Cancelling the context stops the batch before the next document;
	// already-submitted upserts complete.
	Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error)

	// DeleteDocument removes every chunk ingested from the named
	// source. Returns the number of chunks removed.
	DeleteDocument(ctx context.Context, source string) (int, error)
}
