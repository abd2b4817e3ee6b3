// Package chunker provides fixed-size sliding-window text chunking.
//
// Windows are measured in runes so multi-byte characters are never
// split, and boundaries are purely positional: window n always starts
// at n*(size-overlap). Re-aligning to word or sentence boundaries is
// deliberately not done - reproducible chunk IDs require reproducible
// boundaries.
package chunker

import (
	"errors"
	"fmt"
)

// DefaultSize is the default number of runes per window.
const DefaultSize = 800

// DefaultOverlap is the default number of overlapping runes.
const DefaultOverlap = 20

// ErrBadWindow indicates an invalid size/overlap combination.
var ErrBadWindow = errors.New("chunker: overlap must be >= 0 and < size, size must be > 0")

// Window is one chunk of text with its ordinal position.
type Window struct {
	// Text is the window content.
	Text string

	// SequenceIndex is the 0-based window position.
	SequenceIndex int
}

// Chunker splits text into overlapping fixed-size windows.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. It fails fast on invalid configuration:
// size must be positive and overlap must satisfy 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w (size=%d, overlap=%d)", ErrBadWindow, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured window size in runes.
func (c *Chunker) Size() int {
	return c.size
}

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split slides a window of Size runes across text, advancing by
// Size-Overlap each step. The final window may be shorter than Size
// and is still emitted. Empty input produces no windows.
func (c *Chunker) Split(text string) []Window {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap
	windows := make([]Window, 0, len(runes)/step+1)

	for start, index := 0, 0; start < len(runes); start, index = start+step, index+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, Window{
			Text:          string(runes[start:end]),
			SequenceIndex: index,
		})
	}

	return windows
}
