package driven

import (
	"context"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

// Extractor produces plain text from a raw document of a specific
// media type. Anything beyond "bytes in, text out" (layout, styling,
// image OCR) is out of scope.
type Extractor interface {
	// SupportedMediaTypes returns the MIME types this extractor handles.
	SupportedMediaTypes() []string

	// Extract produces the document's text, split into pages for
	// paged formats. Unpaged formats return a single page with a nil
	// Number.
	Extract(ctx context.Context, doc domain.Document) ([]Page, error)
}

// Page is one unit of extracted text.
type Page struct {
	// Number is the 1-based page number, nil for unpaged formats.
	Number *int

	// Text is the extracted plain text.
	Text string
}

// ExtractorRegistry selects the extractor for a media type.
type ExtractorRegistry interface {
	// Lookup returns the extractor for the given MIME type, or
	// domain.ErrUnsupportedMediaType when none is registered.
	Lookup(mediaType string) (Extractor, error)

	// SupportedMediaTypes returns all MIME types with a registered
	// extractor, for upfront request validation.
	SupportedMediaTypes() []string
}
