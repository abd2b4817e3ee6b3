package anonymizer

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\-\s]{6,}\d\b`)
)

func TestAnonymizeContactDetails(t *testing.T) {
	a := New()

	got := a.Anonymize(context.Background(), "Contact me at a@b.com or 555-123-4567")

	assert.NotRegexp(t, emailRe, got)
	assert.NotRegexp(t, phoneRe, got)
	assert.Contains(t, got, "[EMAIL]")
	assert.Contains(t, got, "[PHONE]")
}

func TestAnonymizePatterns(t *testing.T) {
	a := New()

	tests := []struct {
		name        string
		input       string
		placeholder string
		unredacted  string
	}{
		{"email", "reach jane.doe+spam@example.co.uk today", "[EMAIL]", "today"},
		{"phone international", "call +1 555 123 4567 now", "[PHONE]", "call"},
		{"credit card", "card 4111 1111 1111 1111 on file", "[CARD]", "on file"},
		{"zip", "Springfield 62704 USA", "[ZIP]", "Springfield"},
		{"street address", "lives at 221 Baker Street nearby", "[ADDRESS]", "lives at"},
		{"address abbreviated", "ship to 42 Elm Ave please", "[ADDRESS]", "ship to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Anonymize(context.Background(), tt.input)
			assert.Contains(t, got, tt.placeholder)
			assert.Contains(t, got, tt.unredacted)
		})
	}
}

func TestAnonymizeNoDigitsLeak(t *testing.T) {
	a := New()

	inputs := []string{
		"Contact me at a@b.com or 555-123-4567",
		"card 4111 1111 1111 1111, zip 62704-1234",
		"send mail to 221 Baker Street, 90210",
	}
	for _, input := range inputs {
		got := a.Anonymize(context.Background(), input)
		assert.NotRegexp(t, `\d`, got, "input %q", input)
	}
}

func TestAnonymizeEmptyInput(t *testing.T) {
	a := New()

	assert.Empty(t, a.Anonymize(context.Background(), ""))
}

func TestAnonymizePlainTextUntouched(t *testing.T) {
	a := New()

	const text = "The quarterly report covers revenue and headcount."
	assert.Equal(t, text, a.Anonymize(context.Background(), text))
}

// mockRecognizer is a test double for driven.EntityRecognizer.
type mockRecognizer struct {
	spans []driven.EntitySpan
	err   error
}

func (m *mockRecognizer) Recognize(_ context.Context, _ string) ([]driven.EntitySpan, error) {
	return m.spans, m.err
}

func TestAnonymizeWithRecognizer(t *testing.T) {
	const text = "Alice met Bob at Acme Corp"
	rec := &mockRecognizer{
		spans: []driven.EntitySpan{
			{Start: 0, End: 5, Label: driven.EntityPerson},
			{Start: 10, End: 13, Label: driven.EntityPerson},
			{Start: 17, End: 26, Label: driven.EntityOrganisation},
		},
	}
	a := New(WithRecognizer(rec))

	got := a.Anonymize(context.Background(), text)

	assert.Equal(t, "[PERSON] met [PERSON] at [ORG]", got)
}

func TestAnonymizeRecognizerFailureIsAdditive(t *testing.T) {
	// A broken recogniser must not break pattern redaction.
	rec := &mockRecognizer{err: errors.New("model not loaded")}
	a := New(WithRecognizer(rec))

	got := a.Anonymize(context.Background(), "mail a@b.com")

	assert.Equal(t, "mail [EMAIL]", got)
}

func TestAnonymizeInvalidSpansDropped(t *testing.T) {
	rec := &mockRecognizer{
		spans: []driven.EntitySpan{
			{Start: -1, End: 4, Label: driven.EntityPerson},
			{Start: 5, End: 500, Label: driven.EntityPerson},
		},
	}
	a := New(WithRecognizer(rec))

	const text = "hello world"
	assert.Equal(t, text, a.Anonymize(context.Background(), text))
}

func TestAnonymizeStagesDoNotCorrupt(t *testing.T) {
	// Placeholders contain no digits, so the zip stage cannot fire
	// inside an earlier stage's replacement.
	a := New()

	got := a.Anonymize(context.Background(), "fax 555-123-4567 and zip 90210")

	require.Contains(t, got, "[PHONE]")
	require.Contains(t, got, "[ZIP]")
	assert.NotContains(t, got, "[[")
}
