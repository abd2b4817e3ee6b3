package domain

import "time"

// Answer is the final product of a query: generated text plus the
// sources that grounded it.
type Answer struct {
	// Text is the LLM's answer, or an explicit notice when generation
	// failed or no relevant context was found.
	Text string

	// Sources lists the retrieved chunks backing the answer, in rank
	// order. Always the original (non-anonymised) projections.
	Sources []RetrievedSource

	// GenerationFailed is true when retrieval succeeded but the LLM
	// call did not. The caller may retry generation; the sources
	// remain valid.
	GenerationFailed bool
}

// QueryRecord is one entry of the local query history.
type QueryRecord struct {
	// ID is a random identifier assigned when the record is saved.
	ID string

	// Question is the user's raw question.
	Question string

	// Answer is the answer text that was returned.
	Answer string

	// Sources are the retrieved sources backing the answer.
	Sources []RetrievedSource

	// CreatedAt is when the query was answered, UTC.
	CreatedAt time.Time
}
