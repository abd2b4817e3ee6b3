package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/halcyon-labs/docvault/internal/chunker"
	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
	"github.com/halcyon-labs/docvault/internal/core/ports/driving"
	"github.com/halcyon-labs/docvault/internal/fingerprint"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs documents through extraction, chunking,
// fingerprinting, embedding and indexing.
type IngestService struct {
	registry driven.ExtractorRegistry
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	chunker  *chunker.Chunker
	limiter  *rate.Limiter
}

// NewIngestService creates a new ingestion service.
// The limiter caps embedding calls and is optional (can be nil).
func NewIngestService(
	registry driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	ch *chunker.Chunker,
	limiter *rate.Limiter,
) *IngestService {
	return &IngestService{
		registry: registry,
		embedder: embedder,
		index:    index,
		chunker:  ch,
		limiter:  limiter,
	}
}

// Ingest processes a batch of documents. Each document is isolated:
// a failure is recorded and the batch moves on. Cancelling the context
// stops before the next document; the partial result is still returned.
func (s *IngestService) Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents provided", domain.ErrValidation)
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting %d document(s)", len(docs))

	result := &domain.IngestResult{
		VectorDim: s.index.Dimensions(),
	}
	ingErr := &domain.IngestError{}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			logger.Warn("Ingestion cancelled after %d document(s)", len(ingErr.Succeeded))
			return result, err
		}

		ids, tokens, err := s.ingestOne(ctx, doc)
		if err != nil {
			logger.Warn("Document %q failed: %v", doc.Name, err)
			ingErr.Failures = append(ingErr.Failures, domain.DocumentFailure{
				Source: doc.Name,
				Err:    err,
			})
			continue
		}

		logger.Debug("Document %q: %d chunk(s), ~%d tokens", doc.Name, len(ids), tokens)
		ingErr.Succeeded = append(ingErr.Succeeded, doc.Name)
		result.InsertedChunks += len(ids)
		result.TotalTokensApprox += tokens
		result.ChunkIDs = append(result.ChunkIDs, ids...)
	}

	if len(ingErr.Failures) > 0 {
		return result, ingErr
	}
	return result, nil
}

// ingestOne runs the pipeline for a single document and returns the
// upserted chunk IDs and an approximate token count.
func (s *IngestService) ingestOne(ctx context.Context, doc domain.Document) ([]string, int, error) {
	if doc.Name == "" {
		return nil, 0, fmt.Errorf("%w: document has no name", domain.ErrValidation)
	}

	extractor, err := s.registry.Lookup(doc.MediaType)
	if err != nil {
		return nil, 0, err
	}

	pages, err := extractor.Extract(ctx, doc)
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	chunks, tokens := s.chunkPages(doc.Name, pages)
	if len(chunks) == 0 {
		// Nothing to index (e.g. a blank file). Not an error.
		return nil, 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return nil, 0, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbedding, len(vectors), len(chunks))
	}

	dim := s.index.Dimensions()
	ids := make([]string, 0, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != dim {
			return ids, tokens, fmt.Errorf("%w: vector has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, len(vectors[i]), dim)
		}
		if err := s.index.Upsert(ctx, c, vectors[i]); err != nil {
			if errors.Is(err, domain.ErrIndex) || errors.Is(err, domain.ErrDimensionMismatch) {
				return ids, tokens, err
			}
			return ids, tokens, fmt.Errorf("%w: %v", domain.ErrIndex, err)
		}
		ids = append(ids, c.ID)
	}

	return ids, tokens, nil
}

// chunkPages windows each page and assigns content-addressed IDs.
// Sequence indexes restart per page; the ID also covers the text, so
// distinct content never collides.
func (s *IngestService) chunkPages(source string, pages []driven.Page) ([]domain.Chunk, int) {
	now := time.Now().UTC()

	var chunks []domain.Chunk
	tokens := 0
	for _, page := range pages {
		tokens += len(strings.Fields(page.Text))
		for _, w := range s.chunker.Split(page.Text) {
			chunks = append(chunks, domain.Chunk{
				ID:            fingerprint.Chunk(source, w.SequenceIndex, w.Text),
				Text:          w.Text,
				Source:        source,
				PageNumber:    page.Number,
				SequenceIndex: w.SequenceIndex,
				DateAdded:     now,
			})
		}
	}
	return chunks, tokens
}

// DeleteDocument removes every chunk ingested from the named source.
func (s *IngestService) DeleteDocument(ctx context.Context, source string) (int, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, fmt.Errorf("%w: source must not be empty", domain.ErrValidation)
	}

	deleted, err := s.index.DeleteBySource(ctx, source)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: no chunks for source %q", domain.ErrNotFound, source)
	}

	logger.Info("Deleted %d chunk(s) for source %q", deleted, source)
	return deleted, nil
}
