// Package watcher ingests files dropped into a directory.
//
// Create and Write events are debounced per path, so a file being
// copied in produces one ingestion once writes settle.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driving"
	"github.com/halcyon-labs/docvault/internal/extractors"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// Watcher watches one directory and feeds new or changed files to the
// ingestion pipeline.
type Watcher struct {
	ingestor driving.Ingestor
	dir      string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. The directory must exist.
func New(ingestor driving.Ingestor, dir string, debounce time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}

	return &Watcher{
		ingestor: ingestor,
		dir:      dir,
		debounce: debounce,
		pending:  map[string]*time.Timer{},
	}, nil
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent debounces Create and Write events for ingestable files.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if extractors.MediaTypeForFilename(event.Name) == "application/octet-stream" {
		logger.Debug("Ignoring %s: no extractor for its type", event.Name)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

// cancelPending stops all outstanding debounce timers.
func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// ingestFile reads one settled file and runs it through ingestion.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s failed: %v", path, err)
		return
	}

	name := filepath.Base(path)
	result, err := w.ingestor.Ingest(ctx, []domain.Document{{
		Name:      name,
		MediaType: extractors.MediaTypeForFilename(name),
		Data:      data,
	}})
	if err != nil {
		logger.Warn("Ingesting %s failed: %v", name, err)
		return
	}
	logger.Info("Ingested %s: %d chunk(s)", name, result.InsertedChunks)
}
