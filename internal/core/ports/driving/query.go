package driving

import (
	"context"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

// Retriever finds the chunks most relevant to a question.
type Retriever interface {
	// Retrieve embeds the question, searches the index and returns up
	// to opts.K sources with similarity >= opts.ScoreThreshold,
	// ordered by descending similarity. An empty result is not an
	// error; the caller decides how to present "nothing relevant".
	Retrieve(ctx context.Context, question string, opts domain.RetrieveOptions) ([]domain.RetrievedSource, error)
}

// AnswerComposer turns retrieved sources and a question into a final
// answer via the LLM capability.
type AnswerComposer interface {
	// Compose builds an anonymised context block from the sources,
	// invokes the LLM and returns its answer with the original
	// (non-anonymised) sources attached. A generation failure is not
	// an error: the answer text carries an explicit notice and
	// Answer.GenerationFailed is set.
	Compose(ctx context.Context, question string, sources []domain.RetrievedSource) (*domain.Answer, error)
}
