package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

func hit(id string, seq int, sim float64, text string) driven.VectorHit {
	return driven.VectorHit{
		Chunk:      domain.Chunk{ID: id, Text: text, Source: "doc.txt", SequenceIndex: seq},
		Similarity: sim,
	}
}

func TestRetrieveValidation(t *testing.T) {
	svc := NewRetrieveService(newMockEmbedder(testDim), newMockIndex(testDim))

	tests := []struct {
		name     string
		question string
		opts     domain.RetrieveOptions
	}{
		{"empty question", "  ", domain.RetrieveOptions{K: 3, ScoreThreshold: 0.5}},
		{"zero k", "q", domain.RetrieveOptions{K: 0, ScoreThreshold: 0.5}},
		{"negative threshold", "q", domain.RetrieveOptions{K: 3, ScoreThreshold: -0.1}},
		{"threshold above one", "q", domain.RetrieveOptions{K: 3, ScoreThreshold: 1.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Retrieve(context.Background(), tt.question, tt.opts)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRetrieveThresholdIsStrict(t *testing.T) {
	index := newMockIndex(testDim)
	index.hits = []driven.VectorHit{
		hit("aaa", 0, 0.95, "high"),
		hit("bbb", 1, 0.61, "medium"),
		hit("ccc", 2, 0.40, "low"),
	}
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	sources, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 3, ScoreThreshold: 0.6})
	require.NoError(t, err)

	// Below-threshold hits are dropped, never padded back in.
	require.Len(t, sources, 2)
	assert.Equal(t, "aaa", sources[0].ChunkID)
	assert.Equal(t, "bbb", sources[1].ChunkID)
}

func TestRetrieveNothingAboveThreshold(t *testing.T) {
	index := newMockIndex(testDim)
	index.hits = []driven.VectorHit{hit("aaa", 0, 0.2, "weak")}
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	sources, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 3, ScoreThreshold: 0.9})
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestRetrieveOrderingAndTieBreaks(t *testing.T) {
	index := newMockIndex(testDim)
	// Same similarity: sequence index breaks the tie, then chunk ID.
	index.hits = []driven.VectorHit{
		hit("zzz", 2, 0.8, "c"),
		hit("mmm", 1, 0.8, "b"),
		hit("aaa", 1, 0.8, "a"),
		hit("bbb", 0, 0.9, "top"),
	}
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	sources, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 4, ScoreThreshold: 0})
	require.NoError(t, err)

	got := make([]string, len(sources))
	for i, s := range sources {
		got[i] = s.ChunkID
	}
	assert.Equal(t, []string{"bbb", "aaa", "mmm", "zzz"}, got)
}

func TestRetrieveTruncatesToK(t *testing.T) {
	index := newMockIndex(testDim)
	index.hits = []driven.VectorHit{
		hit("aaa", 0, 0.9, "a"),
		hit("bbb", 1, 0.8, "b"),
		hit("ccc", 2, 0.7, "c"),
	}
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	sources, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 2, ScoreThreshold: 0})
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestRetrieveOverfetchesWithFilter(t *testing.T) {
	index := newMockIndex(testDim)
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	_, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 3, ScoreThreshold: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 3, index.lastK, "no filter: fetch exactly k")

	_, err = svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{
			K:              3,
			ScoreThreshold: 0.5,
			Filter:         domain.QueryFilter{Source: "doc.txt"},
		})
	require.NoError(t, err)
	assert.Equal(t, 9, index.lastK, "filter set: over-fetch k*3")
}

func TestRetrieveSnippetTruncation(t *testing.T) {
	long := strings.Repeat("é", 500)
	index := newMockIndex(testDim)
	index.hits = []driven.VectorHit{
		hit("aaa", 0, 0.9, long),
		hit("bbb", 1, 0.9, "short text"),
	}
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	sources, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 2, ScoreThreshold: 0})
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, strings.Repeat("é", 400)+"...", sources[0].Snippet)
	assert.Equal(t, long, sources[0].Text, "full text survives truncation")
	assert.Equal(t, "short text", sources[1].Snippet)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	embedder := newMockEmbedder(testDim)
	embedder.embedErr = errors.New("connection refused")
	svc := NewRetrieveService(embedder, newMockIndex(testDim))

	_, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 3, ScoreThreshold: 0.5})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.True(t, domain.Retryable(err))
}

func TestRetrieveDimensionMismatch(t *testing.T) {
	svc := NewRetrieveService(newMockEmbedder(testDim+1), newMockIndex(testDim))

	_, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 3, ScoreThreshold: 0.5})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestRetrieveIndexFailure(t *testing.T) {
	index := newMockIndex(testDim)
	index.searchErr = errors.New("disk io error")
	svc := NewRetrieveService(newMockEmbedder(testDim), index)

	_, err := svc.Retrieve(context.Background(), "question",
		domain.RetrieveOptions{K: 3, ScoreThreshold: 0.5})
	assert.ErrorIs(t, err, domain.ErrIndex)
}
