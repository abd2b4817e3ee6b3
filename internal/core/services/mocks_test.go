package services

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// mockExtractor returns canned pages for every document.
type mockExtractor struct {
	types []string
	pages []driven.Page
	err   error
}

func (m *mockExtractor) SupportedMediaTypes() []string { return m.types }

func (m *mockExtractor) Extract(_ context.Context, _ domain.Document) ([]driven.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pages, nil
}

// mockRegistry maps media types to extractors.
type mockRegistry struct {
	extractors map[string]driven.Extractor
}

func (m *mockRegistry) Lookup(mediaType string) (driven.Extractor, error) {
	e, ok := m.extractors[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, mediaType)
	}
	return e, nil
}

func (m *mockRegistry) SupportedMediaTypes() []string {
	types := make([]string, 0, len(m.extractors))
	for t := range m.extractors {
		types = append(types, t)
	}
	return types
}

// mockEmbedder produces deterministic vectors derived from the text,
// so identical text always embeds identically.
type mockEmbedder struct {
	dim        int
	embedErr   error
	batchCalls int
}

func newMockEmbedder(dim int) *mockEmbedder { return &mockEmbedder{dim: dim} }

func (m *mockEmbedder) vectorFor(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, m.dim)
	for i := range vec {
		vec[i] = float32(sum[i%len(sum)]) / 255.0
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = m.vectorFor(t)
	}
	return vecs, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dim }
func (m *mockEmbedder) ModelName() string            { return "mock-embedder" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockIndex records calls and returns canned hits.
type mockIndex struct {
	dim       int
	hits      []driven.VectorHit
	searchErr error
	upsertErr error

	upserted []domain.Chunk
	lastK    int
	deleted  map[string]int
}

func newMockIndex(dim int) *mockIndex {
	return &mockIndex{dim: dim, deleted: map[string]int{}}
}

func (m *mockIndex) Upsert(_ context.Context, chunk domain.Chunk, vector []float32) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if len(vector) != m.dim {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), m.dim)
	}
	m.upserted = append(m.upserted, chunk)
	return nil
}

func (m *mockIndex) Search(_ context.Context, _ []float32, k int, _ domain.QueryFilter) ([]driven.VectorHit, error) {
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.hits) > k {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockIndex) DeleteBySource(_ context.Context, source string) (int, error) {
	return m.deleted[source], nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) { return len(m.upserted), nil }
func (m *mockIndex) Dimensions() int                      { return m.dim }
func (m *mockIndex) Close() error                         { return nil }

// mockLLM captures the prompt it was given.
type mockLLM struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }
