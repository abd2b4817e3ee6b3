package fingerprint

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkDeterministic(t *testing.T) {
	a := Chunk("notes.txt", 3, "some chunk text")
	b := Chunk("notes.txt", 3, "some chunk text")

	assert.Equal(t, a, b)
}

func TestChunkFormat(t *testing.T) {
	id := Chunk("notes.txt", 0, "text")

	assert.Len(t, id, Size)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), id)
}

func TestChunkSensitivity(t *testing.T) {
	base := Chunk("notes.txt", 3, "some chunk text")

	tests := []struct {
		name  string
		other string
	}{
		{"different text", Chunk("notes.txt", 3, "some chunk texT")},
		{"different index", Chunk("notes.txt", 4, "some chunk text")},
		{"different source", Chunk("Notes.txt", 3, "some chunk text")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.other)
		})
	}
}

func TestChunkFieldBoundaries(t *testing.T) {
	// Field separators prevent ("ab", "c") colliding with ("a", "bc").
	assert.NotEqual(t, Chunk("ab", 1, "c"), Chunk("a", 1, "1c"))
	assert.NotEqual(t, Chunk("a", 12, "c"), Chunk("a1", 2, "c"))
}
