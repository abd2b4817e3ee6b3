// Package driving defines the interfaces through which the outside
// world drives the core (primary ports in hexagonal architecture).
//
// The HTTP API, the CLI and the directory watcher all call these; the
// core services implement them.
package driving
