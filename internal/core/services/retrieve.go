package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
	"github.com/halcyon-labs/docvault/internal/core/ports/driving"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// Ensure RetrieveService implements the interface.
var _ driving.Retriever = (*RetrieveService)(nil)

// snippetLength is the maximum snippet size in runes.
const snippetLength = 400

// filterOverfetch is the multiplier applied to k when a metadata
// filter is set, so thresholding still has enough candidates.
const filterOverfetch = 3

// RetrieveService finds the indexed chunks most similar to a question.
type RetrieveService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewRetrieveService creates a new retrieval service.
func NewRetrieveService(embedder driven.EmbeddingService, index driven.VectorIndex) *RetrieveService {
	return &RetrieveService{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve embeds the question, searches the index and returns up to
// opts.K sources at or above the threshold. Results below the
// threshold are dropped, never padded back in; an empty result is a
// valid answer.
func (s *RetrieveService) Retrieve(
	ctx context.Context, question string, opts domain.RetrieveOptions,
) ([]domain.RetrievedSource, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrValidation)
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrValidation, opts.K)
	}
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return nil, fmt.Errorf("%w: score threshold must be in [0,1], got %g",
			domain.ErrValidation, opts.ScoreThreshold)
	}

	logger.Section("Retrieval")
	logger.Debug("Question: %q, k=%d, threshold=%g", question, opts.K, opts.ScoreThreshold)

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(vector) != s.index.Dimensions() {
		return nil, fmt.Errorf("%w: question vector has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), s.index.Dimensions())
	}

	fetchK := opts.K
	if !opts.Filter.IsZero() {
		fetchK = opts.K * filterOverfetch
		logger.Debug("Filter set, over-fetching %d candidates", fetchK)
	}

	hits, err := s.index.Search(ctx, vector, fetchK, opts.Filter)
	if err != nil {
		if errors.Is(err, domain.ErrIndex) || errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIndex, err)
	}

	survivors := hits[:0:0]
	for _, hit := range hits {
		if hit.Similarity >= opts.ScoreThreshold {
			survivors = append(survivors, hit)
		}
	}

	// The index already orders its results, but the ordering contract
	// belongs to retrieval: similarity desc, then sequence index asc,
	// then chunk ID asc.
	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Similarity != survivors[j].Similarity {
			return survivors[i].Similarity > survivors[j].Similarity
		}
		if survivors[i].Chunk.SequenceIndex != survivors[j].Chunk.SequenceIndex {
			return survivors[i].Chunk.SequenceIndex < survivors[j].Chunk.SequenceIndex
		}
		return survivors[i].Chunk.ID < survivors[j].Chunk.ID
	})

	if len(survivors) > opts.K {
		survivors = survivors[:opts.K]
	}

	logger.Info("Retrieved %d source(s) of %d candidate(s)", len(survivors), len(hits))

	sources := make([]domain.RetrievedSource, len(survivors))
	for i, hit := range survivors {
		sources[i] = domain.RetrievedSource{
			ChunkID:    hit.Chunk.ID,
			Source:     hit.Chunk.Source,
			PageNumber: hit.Chunk.PageNumber,
			DateAdded:  hit.Chunk.DateAdded,
			Similarity: hit.Similarity,
			Snippet:    snippet(hit.Chunk.Text),
			Text:       hit.Chunk.Text,
		}
	}
	return sources, nil
}

// snippet returns the first snippetLength runes of text, with an
// ellipsis when truncated.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
