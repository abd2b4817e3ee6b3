package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

type recordingIngestor struct {
	mu   sync.Mutex
	docs []domain.Document
}

func (r *recordingIngestor) Ingest(_ context.Context, docs []domain.Document) (*domain.IngestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, docs...)
	return &domain.IngestResult{InsertedChunks: len(docs)}, nil
}

func (r *recordingIngestor) DeleteDocument(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (r *recordingIngestor) ingested() []domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Document(nil), r.docs...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New(&recordingIngestor{}, filepath.Join(t.TempDir(), "gone"), time.Millisecond)
	require.Error(t, err)
}

func TestNewRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	_, err := New(&recordingIngestor{}, path, time.Millisecond)
	require.Error(t, err)
}

func TestWatcherIngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}

	w, err := New(ingestor, dir, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	// Give the watcher a moment to register.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.txt"), []byte("new content"), 0600))

	waitFor(t, 2*time.Second, func() bool { return len(ingestor.ingested()) == 1 })

	docs := ingestor.ingested()
	assert.Equal(t, "dropped.txt", docs[0].Name)
	assert.Equal(t, "text/plain", docs[0].MediaType)
	assert.Equal(t, []byte("new content"), docs[0].Data)

	cancel()
	<-done
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}

	w, err := New(ingestor, dir, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 'P', 'N', 'G'}, 0600))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, ingestor.ingested())
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}

	w, err := New(ingestor, dir, 100*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "growing.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("content"), 0600))
		time.Sleep(20 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool { return len(ingestor.ingested()) >= 1 })
	time.Sleep(300 * time.Millisecond)

	assert.Len(t, ingestor.ingested(), 1, "burst of writes must collapse into one ingestion")
}
