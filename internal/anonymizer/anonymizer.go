// Package anonymizer redacts sensitive spans from text before it
// crosses the trust boundary to a third-party generation service.
//
// Redaction is a two-stage pipeline. The first stage is pattern based:
// emails, phone numbers, card-like digit runs, ZIP codes and street
// addresses are each replaced by a labeled placeholder, left to right,
// every stage operating on the previous stage's output. The second
// stage is an optional named-entity recogniser replacing person,
// organisation and location names; when absent the pipeline is
// unchanged.
//
// Only LLM-bound text passes through here. Persisted chunks and the
// snippets shown to the querying user stay raw: the user is already
// authorised to read their own documents.
package anonymizer

import (
	"context"
	"regexp"
	"sort"

	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// stage is one pattern-based redaction pass.
type stage struct {
	name        string
	pattern     *regexp.Regexp
	placeholder string
}

// Pattern stages, applied in order. The card stage runs before the
// phone stage: both match separated digit runs, and the longer
// card-length match must win at a shared start position. Placeholders
// contain no digits, so later stages never match inside an earlier
// stage's output.
var stages = []stage{
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{"card", regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`), "[CARD]"},
	{"phone", regexp.MustCompile(`\b(\+?\d[\d\-\s]{6,}\d)\b`), "[PHONE]"},
	{"zip", regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`), "[ZIP]"},
	{"address", regexp.MustCompile(`(?i)\d{1,5}\s+[A-Za-z0-9.\-]+\s+(Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct)\b`), "[ADDRESS]"},
}

// Anonymizer redacts sensitive spans from text.
type Anonymizer struct {
	recognizer driven.EntityRecognizer
}

// Option configures the anonymizer.
type Option func(*Anonymizer)

// WithRecognizer enables the named-entity redaction stage.
func WithRecognizer(r driven.EntityRecognizer) Option {
	return func(a *Anonymizer) {
		a.recognizer = r
	}
}

// New creates an anonymizer with the given options.
func New(opts ...Option) *Anonymizer {
	a := &Anonymizer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Anonymize returns text with sensitive spans replaced by labeled
// placeholders. A failing entity recogniser is logged and skipped:
// the named-entity stage is purely additive and its problems must not
// block the pipeline.
func (a *Anonymizer) Anonymize(ctx context.Context, text string) string {
	if text == "" {
		return text
	}

	for _, s := range stages {
		text = s.pattern.ReplaceAllString(text, s.placeholder)
	}

	if a.recognizer == nil {
		return text
	}

	spans, err := a.recognizer.Recognize(ctx, text)
	if err != nil {
		logger.Warn("entity recognition failed, skipping stage: %v", err)
		return text
	}

	return replaceSpans(text, spans)
}

// replaceSpans substitutes each span with its label placeholder.
// Replacement runs right to left so earlier offsets stay valid.
func replaceSpans(text string, spans []driven.EntitySpan) string {
	sorted := make([]driven.EntitySpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	for _, span := range sorted {
		if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
			logger.Warn("dropping invalid entity span [%d:%d)", span.Start, span.End)
			continue
		}
		text = text[:span.Start] + "[" + span.Label + "]" + text[span.End:]
	}
	return text
}
