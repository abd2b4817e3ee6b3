// Package domain contains the core business entities and errors for
// the retrieval pipeline.
//
// Everything here is a plain value type with no behaviour beyond
// validation helpers. The domain layer has no dependencies on adapters
// or infrastructure.
package domain
