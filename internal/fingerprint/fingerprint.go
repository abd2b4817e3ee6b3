// Package fingerprint computes content-addressed chunk identifiers.
//
// The identifier is the idempotence key for ingestion: identical
// (source, sequence index, text) always hashes to the same ID, so
// re-ingesting a document upserts over its own chunks instead of
// duplicating them.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Chunk returns the SHA-256 digest of (source, sequenceIndex, text) as
// a 64-character lowercase hex string. Fields are separated by a NUL
// byte so no two distinct inputs share a concatenation.
func Chunk(source string, sequenceIndex int, text string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(sequenceIndex)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
