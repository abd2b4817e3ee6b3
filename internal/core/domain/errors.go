package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or invalid input.
	// Requests failing validation are rejected before pipeline entry,
	// with no side effects.
	ErrValidation = errors.New("invalid input")

	// ErrUnsupportedMediaType indicates a file type no extractor handles.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrExtraction indicates a corrupt or unparseable file.
	// Isolated per document; does not abort the rest of a batch.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding indicates the embedding service failed.
	// Fails the current document or query entirely: there is no valid
	// downstream result without a vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates the vector index failed.
	ErrIndex = errors.New("vector index failed")

	// ErrGeneration indicates the LLM was unavailable or timed out.
	// Retrieval already succeeded; the sources are still returned and
	// the request may be retried.
	ErrGeneration = errors.New("answer generation failed")

	// ErrDimensionMismatch indicates a vector whose length differs
	// from the index dimensionality. Always a hard error.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Retryable reports whether an error represents a transient failure
// where retrying the same request may succeed, as opposed to input
// that must be fixed first.
func Retryable(err error) bool {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrDimensionMismatch) {
		return false
	}
	return errors.Is(err, ErrGeneration) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrEmbedding) ||
		errors.Is(err, ErrIndex)
}

// DocumentFailure records one document that failed during a batch ingest.
type DocumentFailure struct {
	// Source is the filename of the failed document.
	Source string

	// Err is the failure cause.
	Err error
}

// IngestError aggregates per-document failures from a batch ingest.
// Documents are isolated: successfully ingested documents are listed
// in Succeeded even when others failed.
type IngestError struct {
	// Succeeded lists the filenames that were fully ingested.
	Succeeded []string

	// Failures lists each failed document with its cause.
	Failures []DocumentFailure
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ingest: %d of %d documents failed",
		len(e.Failures), len(e.Failures)+len(e.Succeeded))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; %s: %v", f.Source, f.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying causes for errors.Is/As.
func (e *IngestError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
