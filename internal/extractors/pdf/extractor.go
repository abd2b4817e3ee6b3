// Package pdf extracts text from PDF documents.
//
// Extraction shells out to pdftotext (poppler-utils). Page boundaries
// are recovered from the form feed characters pdftotext emits between
// pages.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// CommandRunner executes an external command and returns its stdout.
// Abstracted for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %s", name, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Extractor handles PDF documents via pdftotext.
type Extractor struct {
	runner CommandRunner
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner. Used in tests.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) {
		e.runner = r
	}
}

// New creates a PDF extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedMediaTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []string {
	return []string{"application/pdf"}
}

// Extract writes the document to a temporary file, runs pdftotext on
// it and splits the output into pages. Empty pages are skipped; page
// numbers stay 1-based relative to the document.
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) ([]driven.Page, error) {
	tmp, err := os.CreateTemp("", "docvault-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, filepath.Base(doc.Name), err)
	}

	return splitPages(string(out)), nil
}

// splitPages separates pdftotext output on form feeds into 1-based
// pages, dropping pages with no text.
func splitPages(out string) []driven.Page {
	parts := strings.Split(out, "\f")
	pages := make([]driven.Page, 0, len(parts))
	for i, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		number := i + 1
		pages = append(pages, driven.Page{Number: &number, Text: text})
	}
	return pages
}
