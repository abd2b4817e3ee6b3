package driven

import "context"

// Entity classes reported by an EntityRecognizer.
const (
	EntityPerson       = "PERSON"
	EntityOrganisation = "ORG"
	EntityLocation     = "LOC"
)

// EntitySpan marks a sensitive named entity within a text.
type EntitySpan struct {
	// Start is the byte offset of the span start.
	Start int

	// End is the byte offset one past the span end.
	End int

	// Label is the entity class (EntityPerson, EntityOrganisation,
	// EntityLocation). It becomes the redaction placeholder.
	Label string
}

// EntityRecognizer detects person, organisation and location names for
// redaction. This is an optional capability - when nil, anonymisation
// runs its pattern stages only. Its absence never breaks the pipeline.
type EntityRecognizer interface {
	// Recognize returns the sensitive spans found in text.
	// Spans must be non-overlapping and ordered by Start.
	Recognize(ctx context.Context, text string) ([]EntitySpan, error)
}
