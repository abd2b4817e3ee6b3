package domain

import "time"

// QueryFilter is a conjunctive predicate over chunk metadata.
// Zero-valued fields are ignored.
type QueryFilter struct {
	// Source restricts results to chunks from this filename.
	Source string

	// MinPage restricts results to chunks with PageNumber >= MinPage.
	// Chunks without a page number are excluded when set.
	MinPage *int

	// MaxPage restricts results to chunks with PageNumber <= MaxPage.
	// Chunks without a page number are excluded when set.
	MaxPage *int
}

// IsZero reports whether the filter imposes no constraints.
func (f QueryFilter) IsZero() bool {
	return f.Source == "" && f.MinPage == nil && f.MaxPage == nil
}

// Matches reports whether a chunk with the given source and page
// satisfies the filter.
func (f QueryFilter) Matches(source string, page *int) bool {
	if f.Source != "" && f.Source != source {
		return false
	}
	if f.MinPage != nil {
		if page == nil || *page < *f.MinPage {
			return false
		}
	}
	if f.MaxPage != nil {
		if page == nil || *page > *f.MaxPage {
			return false
		}
	}
	return true
}

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	// K is the maximum number of sources to return.
	K int

	// ScoreThreshold excludes results with similarity below it.
	// Must be in [0,1]. Results are never padded to reach K.
	ScoreThreshold float64

	// Filter is an optional metadata predicate.
	Filter QueryFilter
}

// RetrievedSource is a read-only projection of a chunk plus its
// query-relative similarity. It is recomputed per query, never persisted.
type RetrievedSource struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// Source is the originating filename.
	Source string

	// PageNumber is the page of the chunk, when known.
	PageNumber *int

	// DateAdded is when the chunk was ingested.
	DateAdded time.Time

	// Similarity is the cosine similarity to the question, in [0,1].
	// Stored at full precision; rounding is a display concern.
	Similarity float64

	// Snippet is a short raw-text preview for display. Deliberately
	// not anonymised: the querying user is authorised to see their
	// own documents.
	Snippet string

	// Text is the full raw chunk content. It feeds prompt assembly
	// (after anonymisation) and is not part of the wire response.
	Text string
}
