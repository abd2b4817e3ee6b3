package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

func intPtr(n int) *int { return &n }

func TestSaveAndList(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	record := domain.QueryRecord{
		Question: "what is the refund policy?",
		Answer:   "Refunds are processed within 14 days.",
		Sources: []domain.RetrievedSource{
			{
				ChunkID:    "abc123",
				Source:     "policy.pdf",
				PageNumber: intPtr(4),
				Similarity: 0.91,
				Snippet:    "Refunds are processed…",
			},
		},
	}

	err = store.Save(ctx, record)
	require.NoError(t, err)

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.NotEmpty(t, got.ID, "ID should be assigned on save")
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be assigned on save")
	assert.Equal(t, record.Question, got.Question)
	assert.Equal(t, record.Answer, got.Answer)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "policy.pdf", got.Sources[0].Source)
	require.NotNil(t, got.Sources[0].PageNumber)
	assert.Equal(t, 4, *got.Sources[0].PageNumber)
}

func TestListNewestFirst(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, question := range []string{"first", "second", "third"} {
		err := store.Save(ctx, domain.QueryRecord{
			Question:  question,
			Answer:    "ok",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Question)
	assert.Equal(t, "second", records[1].Question)
	assert.Equal(t, "first", records[2].Question)
}

func TestListRespectsLimit(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := store.Save(ctx, domain.QueryRecord{Question: "q", Answer: "a"})
		require.NoError(t, err)
	}

	records, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestListEmptyStore(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	records, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(dir)
	require.NoError(t, err)
	err = store.Save(ctx, domain.QueryRecord{Question: "persisted?", Answer: "yes"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted?", records[0].Question)
}

func TestEmptySourcesRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	err = store.Save(ctx, domain.QueryRecord{Question: "no sources", Answer: "I don't know."})
	require.NoError(t, err)

	records, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Sources)
}
