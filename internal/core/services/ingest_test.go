package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/docvault/internal/adapters/driven/vectorstore/memory"
	"github.com/halcyon-labs/docvault/internal/chunker"
	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

const testDim = 8

var hexID = regexp.MustCompile(`^[0-9a-f]{64}$`)

func textRegistry(pages ...driven.Page) *mockRegistry {
	return &mockRegistry{extractors: map[string]driven.Extractor{
		"text/plain": &mockExtractor{types: []string{"text/plain"}, pages: pages},
	}}
}

func newTestIngestor(t *testing.T, registry driven.ExtractorRegistry, index driven.VectorIndex) *IngestService {
	t.Helper()
	ch, err := chunker.New(50, 10)
	require.NoError(t, err)
	return NewIngestService(registry, newMockEmbedder(testDim), index, ch, nil)
}

func TestIngestSingleDocument(t *testing.T) {
	registry := textRegistry(driven.Page{Text: strings.Repeat("the quick brown fox ", 20)})
	index := newMockIndex(testDim)
	svc := newTestIngestor(t, registry, index)

	result, err := svc.Ingest(context.Background(), []domain.Document{
		{Name: "fox.txt", MediaType: "text/plain", Data: []byte("ignored by mock")},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, testDim, result.VectorDim)
	assert.Greater(t, result.InsertedChunks, 1)
	assert.Equal(t, result.InsertedChunks, len(result.ChunkIDs))
	assert.Equal(t, 80, result.TotalTokensApprox, "20 repeats of 4 words")

	for _, id := range result.ChunkIDs {
		assert.Regexp(t, hexID, id)
	}
	require.Len(t, index.upserted, result.InsertedChunks)
	for i, c := range index.upserted {
		assert.Equal(t, "fox.txt", c.Source)
		assert.Equal(t, i, c.SequenceIndex)
		assert.Nil(t, c.PageNumber)
		assert.False(t, c.DateAdded.IsZero())
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	svc := newTestIngestor(t, textRegistry(), newMockIndex(testDim))

	_, err := svc.Ingest(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngestIsolatesFailingDocuments(t *testing.T) {
	registry := textRegistry(driven.Page{Text: "healthy document body"})
	index := newMockIndex(testDim)
	svc := newTestIngestor(t, registry, index)

	result, err := svc.Ingest(context.Background(), []domain.Document{
		{Name: "bad.docx", MediaType: "application/msword"},
		{Name: "good.txt", MediaType: "text/plain"},
	})

	var ingErr *domain.IngestError
	require.ErrorAs(t, err, &ingErr)
	require.Len(t, ingErr.Failures, 1)
	assert.Equal(t, "bad.docx", ingErr.Failures[0].Source)
	assert.ErrorIs(t, ingErr.Failures[0].Err, domain.ErrUnsupportedMediaType)
	assert.Equal(t, []string{"good.txt"}, ingErr.Succeeded)

	require.NotNil(t, result, "partial result must survive failures")
	assert.Equal(t, 1, result.InsertedChunks)
}

func TestIngestExtractionFailureWrapped(t *testing.T) {
	registry := &mockRegistry{extractors: map[string]driven.Extractor{
		"text/plain": &mockExtractor{err: errors.New("truncated stream")},
	}}
	svc := newTestIngestor(t, registry, newMockIndex(testDim))

	_, err := svc.Ingest(context.Background(), []domain.Document{
		{Name: "broken.txt", MediaType: "text/plain"},
	})

	var ingErr *domain.IngestError
	require.ErrorAs(t, err, &ingErr)
	assert.ErrorIs(t, ingErr.Failures[0].Err, domain.ErrExtraction)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	registry := textRegistry(driven.Page{Text: "some content"})
	ch, err := chunker.New(50, 10)
	require.NoError(t, err)

	embedder := newMockEmbedder(testDim)
	embedder.embedErr = errors.New("connection refused")
	svc := NewIngestService(registry, embedder, newMockIndex(testDim), ch, nil)

	_, err = svc.Ingest(context.Background(), []domain.Document{
		{Name: "doc.txt", MediaType: "text/plain"},
	})

	var ingErr *domain.IngestError
	require.ErrorAs(t, err, &ingErr)
	assert.ErrorIs(t, ingErr.Failures[0].Err, domain.ErrEmbedding)
	assert.True(t, domain.Retryable(ingErr.Failures[0].Err))
}

func TestIngestDimensionMismatch(t *testing.T) {
	registry := textRegistry(driven.Page{Text: "some content"})
	ch, err := chunker.New(50, 10)
	require.NoError(t, err)

	// Embedder and index disagree on dimensionality.
	svc := NewIngestService(registry, newMockEmbedder(testDim+1), newMockIndex(testDim), ch, nil)

	_, err = svc.Ingest(context.Background(), []domain.Document{
		{Name: "doc.txt", MediaType: "text/plain"},
	})

	var ingErr *domain.IngestError
	require.ErrorAs(t, err, &ingErr)
	assert.ErrorIs(t, ingErr.Failures[0].Err, domain.ErrDimensionMismatch)
	assert.False(t, domain.Retryable(ingErr.Failures[0].Err))
}

func TestIngestBlankDocumentIsNotAnError(t *testing.T) {
	registry := textRegistry(driven.Page{Text: "   \n\t  "})
	svc := newTestIngestor(t, registry, newMockIndex(testDim))

	result, err := svc.Ingest(context.Background(), []domain.Document{
		{Name: "blank.txt", MediaType: "text/plain"},
	})
	require.NoError(t, err)
	// Whitespace still chunks; zero tokens is what marks it blank.
	assert.Equal(t, 0, result.TotalTokensApprox)
}

func TestIngestCancelledBetweenDocuments(t *testing.T) {
	registry := textRegistry(driven.Page{Text: "content"})
	svc := newTestIngestor(t, registry, newMockIndex(testDim))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Ingest(ctx, []domain.Document{
		{Name: "a.txt", MediaType: "text/plain"},
		{Name: "b.txt", MediaType: "text/plain"},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Zero(t, result.InsertedChunks)
}

func TestIngestPagedDocument(t *testing.T) {
	one, two := 1, 2
	registry := &mockRegistry{extractors: map[string]driven.Extractor{
		"application/pdf": &mockExtractor{pages: []driven.Page{
			{Number: &one, Text: "first page body"},
			{Number: &two, Text: "second page body"},
		}},
	}}
	index := newMockIndex(testDim)
	svc := newTestIngestor(t, registry, index)

	result, err := svc.Ingest(context.Background(), []domain.Document{
		{Name: "doc.pdf", MediaType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.InsertedChunks)

	require.Len(t, index.upserted, 2)
	require.NotNil(t, index.upserted[0].PageNumber)
	assert.Equal(t, 1, *index.upserted[0].PageNumber)
	require.NotNil(t, index.upserted[1].PageNumber)
	assert.Equal(t, 2, *index.upserted[1].PageNumber)
	// Sequence indexes restart per page.
	assert.Equal(t, 0, index.upserted[1].SequenceIndex)
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	registry := textRegistry(driven.Page{Text: strings.Repeat("stable content here ", 15)})
	index := memory.New(testDim)
	defer index.Close()

	svc := newTestIngestor(t, registry, index)
	docs := []domain.Document{{Name: "stable.txt", MediaType: "text/plain"}}

	first, err := svc.Ingest(context.Background(), docs)
	require.NoError(t, err)
	countAfterFirst, err := index.Count(context.Background())
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), docs)
	require.NoError(t, err)
	countAfterSecond, err := index.Count(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ChunkIDs, second.ChunkIDs, "content-addressed IDs must be stable")
	assert.Equal(t, countAfterFirst, countAfterSecond, "re-ingestion must not grow the index")
}

func TestDeleteDocument(t *testing.T) {
	index := newMockIndex(testDim)
	index.deleted["report.pdf"] = 7
	svc := newTestIngestor(t, textRegistry(), index)

	n, err := svc.DeleteDocument(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestDeleteDocumentValidation(t *testing.T) {
	svc := newTestIngestor(t, textRegistry(), newMockIndex(testDim))

	_, err := svc.DeleteDocument(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.DeleteDocument(context.Background(), "never-ingested.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
