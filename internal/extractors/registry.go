// Package extractors selects text extractors by media type.
//
// Extraction is deliberately shallow: each extractor turns a raw
// document into plain text, nothing more. New formats are supported by
// registering another Extractor.
package extractors

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors.
type Registry struct {
	byType map[string]driven.Extractor
}

// NewRegistry creates a registry over the given extractors.
// Later extractors win when two claim the same MIME type.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byType: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		for _, mt := range e.SupportedMediaTypes() {
			r.byType[normalise(mt)] = e
		}
	}
	return r
}

// Lookup returns the extractor for the given MIME type.
// Parameters such as "; charset=utf-8" are ignored.
func (r *Registry) Lookup(mediaType string) (driven.Extractor, error) {
	e, ok := r.byType[normalise(mediaType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, mediaType)
	}
	return e, nil
}

// SupportedMediaTypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMediaTypes() []string {
	types := make([]string, 0, len(r.byType))
	for mt := range r.byType {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// MediaTypeForFilename guesses a MIME type from the filename
// extension. Unknown extensions map to "application/octet-stream",
// which no extractor claims.
func MediaTypeForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// normalise strips MIME parameters and lowercases the type.
func normalise(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
