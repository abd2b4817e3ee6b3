package driven

import (
	"context"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

// VectorIndex stores (vector, chunk metadata) pairs and performs
// similarity search over them. The index exclusively owns persisted
// chunks; ingestion and retrieval are stateless orchestrations over it.
//
// Dimensionality is fixed when the index is created. Vectors of any
// other length are rejected with domain.ErrDimensionMismatch.
//
// Similarity is cosine similarity clamped to [0,1]: negative cosines
// report 0. Both adapters apply the metadata filter inside the scan.
type VectorIndex interface {
	// Upsert inserts or overwrites the vector and metadata for a chunk.
	// Writing an existing ID replaces it; identical content produces
	// identical IDs, so re-ingestion is a no-op in effect.
	Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error

	// Search returns up to k chunks nearest to the query vector that
	// satisfy the filter, ordered by descending similarity.
	Search(ctx context.Context, vector []float32, k int, filter domain.QueryFilter) ([]VectorHit, error)

	// DeleteBySource removes all chunks from the named source document.
	// Returns the number of chunks removed.
	DeleteBySource(ctx context.Context, source string) (int, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the fixed vector dimensionality of the index.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Chunk is the stored chunk, metadata and raw text included.
	Chunk domain.Chunk

	// Similarity is the cosine similarity to the query vector, in [0,1].
	Similarity float64
}
