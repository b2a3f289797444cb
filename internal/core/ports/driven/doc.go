// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// Every call crossing these interfaces is a blocking I/O boundary:
// implementations accept a context and must honour cancellation, since
// the backing store or inference service may be unavailable.
package driven
