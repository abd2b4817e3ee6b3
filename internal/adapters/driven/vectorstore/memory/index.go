// Package memory provides an in-memory vector index.
//
// Intended for tests and small corpora; the SQLite adapter is the
// persistent sibling. Search is an exact scan with cosine similarity.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry pairs a chunk with its embedding.
type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// Index is an in-memory implementation of driven.VectorIndex.
// Safe for concurrent use: writes to distinct IDs do not block reads.
type Index struct {
	mu         sync.RWMutex
	entries    map[string]entry
	dimensions int
}

// New creates an index with a fixed dimensionality.
func New(dimensions int) *Index {
	return &Index{
		entries:    make(map[string]entry),
		dimensions: dimensions,
	}
}

// Upsert inserts or overwrites the vector and metadata for a chunk.
func (ix *Index) Upsert(_ context.Context, chunk domain.Chunk, vector []float32) error {
	if len(vector) != ix.dimensions {
		return fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), ix.dimensions)
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[chunk.ID] = entry{chunk: chunk, vector: stored}
	return nil
}

// Search returns up to k chunks nearest to the query vector that
// satisfy the filter, ordered by descending similarity with
// deterministic tie-breaking.
func (ix *Index) Search(_ context.Context, vector []float32, k int, filter domain.QueryFilter) ([]driven.VectorHit, error) {
	if len(vector) != ix.dimensions {
		return nil, fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), ix.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(ix.entries))
	for _, e := range ix.entries {
		if !filter.Matches(e.chunk.Source, e.chunk.PageNumber) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Chunk:      e.chunk,
			Similarity: Cosine(vector, e.vector),
		})
	}
	ix.mu.RUnlock()

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
func (ix *Index) DeleteBySource(_ context.Context, source string) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	deleted := 0
	for id, e := range ix.entries {
		if e.chunk.Source == source {
			delete(ix.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of stored chunks.
func (ix *Index) Count(_ context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries), nil
}

// Dimensions returns the fixed vector dimensionality.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Close releases resources.
func (ix *Index) Close() error {
	return nil
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Negative cosines (opposed vectors) report 0: the retrieval contract
// exposes similarity as a [0,1] relevance score.
func Cosine(a, b []float32) float64 {
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
