package domain

import "time"

// Document is a named byte source handed to ingestion.
// It is transient: documents exist only while being ingested and are
// never persisted as a unit. Only their chunks survive.
type Document struct {
	// Name is the original filename. It becomes the Source of every
	// chunk produced from this document.
	Name string

	// MediaType is the declared MIME type (e.g. "text/plain",
	// "application/pdf"). Extraction is selected by this value.
	MediaType string

	// Data is the raw file content.
	Data []byte
}

// Chunk is the unit of embedding and retrieval: a bounded, overlapping
// window of a source document. Chunks are immutable once created and
// are removed only by deleting their source document.
type Chunk struct {
	// ID is the content-addressed identifier: a fixed-width lowercase
	// hex digest of (Source, SequenceIndex, Text). Re-ingesting
	// identical input yields identical IDs, making upserts idempotent.
	ID string

	// Text is the raw chunk content. It is stored and returned to the
	// user verbatim; anonymisation happens only on LLM-bound copies.
	Text string

	// Source is the filename of the originating document.
	Source string

	// PageNumber is the 1-based page the chunk came from, when the
	// extractor provides pages (PDF). Nil for unpaged formats.
	PageNumber *int

	// SequenceIndex is the ordinal position of the chunk within its
	// source document (within its page, for paged formats).
	SequenceIndex int

	// DateAdded is when the chunk was ingested, UTC.
	DateAdded time.Time
}

// IngestResult summarises a completed ingestion batch.
type IngestResult struct {
	// InsertedChunks is the number of chunks upserted into the index.
	InsertedChunks int

	// TotalTokensApprox is a coarse whitespace-based token estimate.
	// Advisory only; never used for correctness decisions.
	TotalTokensApprox int

	// VectorDim is the embedding dimensionality of the index.
	VectorDim int

	// ChunkIDs lists the IDs of all upserted chunks, in ingest order.
	ChunkIDs []string
}
