// Package plaintext extracts text from plain text documents.
package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents. The content is the text;
// extraction only validates encoding.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/csv",
	}
}

// Extract returns the document bytes as a single unpaged page.
// Input must be valid UTF-8; anything else is treated as a corrupt
// document, not silently transcoded.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) ([]driven.Page, error) {
	if !utf8.Valid(doc.Data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrExtraction, doc.Name)
	}
	return []driven.Page{{Text: string(doc.Data)}}, nil
}
