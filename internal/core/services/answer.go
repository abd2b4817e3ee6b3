package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/halcyon-labs/docvault/internal/anonymizer"
	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
	"github.com/halcyon-labs/docvault/internal/core/ports/driving"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerComposer = (*AnswerService)(nil)

// Fixed answer texts for the cases where the LLM is not consulted.
const (
	noContextAnswer = "I don't know. No relevant context was found in the indexed documents."

	noLLMAnswer = "Answer generation is not configured; showing matching sources only."

	generationFailedAnswer = "Answer generation failed; the matching sources are still listed below. " +
		"Retrying the query may succeed."
)

// promptTemplate instructs the model to stay inside the provided
// context. Filled with the anonymised context block and the question.
const promptTemplate = "You are an assistant for question-answering. " +
	"Use the retrieved context to answer concisely (<= 3 sentences). " +
	"If the answer is not in the context, say 'I don't know'.\n\n" +
	"Context:\n%s\n\nQuestion:\n%s"

// AnswerService composes LLM answers from retrieved sources. Every
// chunk is anonymised before it enters the prompt; the sources
// attached to the answer stay verbatim.
type AnswerService struct {
	llm         driven.LLMService
	anonymizer  *anonymizer.Anonymizer
	maxTokens   int
	temperature float64
}

// NewAnswerService creates a new answer service.
// The llm parameter is optional (can be nil): without it answers
// degrade to a fixed notice plus sources.
func NewAnswerService(
	llm driven.LLMService,
	anon *anonymizer.Anonymizer,
	maxTokens int,
	temperature float64,
) *AnswerService {
	return &AnswerService{
		llm:         llm,
		anonymizer:  anon,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Compose builds the anonymised context block, invokes the LLM and
// returns its answer. A generation failure is not an error: the
// sources survived retrieval and are returned with a notice instead.
func (s *AnswerService) Compose(
	ctx context.Context, question string, sources []domain.RetrievedSource,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrValidation)
	}

	if len(sources) == 0 {
		return &domain.Answer{Text: noContextAnswer}, nil
	}

	if s.llm == nil {
		logger.Debug("No LLM configured, returning sources only")
		return &domain.Answer{Text: noLLMAnswer, Sources: sources}, nil
	}

	logger.Section("Answer Generation")
	prompt := fmt.Sprintf(promptTemplate, s.contextBlock(ctx, sources), question)
	logger.Debug("Prompt is %d bytes over %d source(s)", len(prompt), len(sources))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return &domain.Answer{
			Text:             generationFailedAnswer,
			Sources:          sources,
			GenerationFailed: true,
		}, nil
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
	}, nil
}

// contextBlock renders the sources into the prompt context, one
// anonymised chunk per source in rank order, each tagged with its
// origin so the model can cite it.
func (s *AnswerService) contextBlock(ctx context.Context, sources []domain.RetrievedSource) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		tag := fmt.Sprintf("[source: %s]", src.Source)
		if src.PageNumber != nil {
			tag = fmt.Sprintf("[source: %s, page %d]", src.Source, *src.PageNumber)
		}
		parts[i] = tag + "\n" + s.anonymizer.Anonymize(ctx, src.Text)
	}
	return strings.Join(parts, "\n\n")
}
