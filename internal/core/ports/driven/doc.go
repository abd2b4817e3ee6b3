// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor / ExtractorRegistry: produce plain text from uploaded files
//   - EmbeddingService: maps text to a fixed-dimension vector
//   - VectorIndex: stores and searches (vector, metadata) pairs
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: answer generation. Without it, queries return sources
//     with an explicit notice instead of a generated answer.
//   - EntityRecognizer: named-entity redaction. Without it, anonymisation
//     runs the pattern stages only.
//   - QueryLogStore: local query history. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
