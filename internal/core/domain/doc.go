// Package domain defines the core business entities for the GRCora
// retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ControlRecord: A normalised compliance control handed over by ingestion
//   - Chunk: A token-bounded segment of a control, the atomic retrieval unit
//   - EmbeddingEntry: A stored vector representation of a chunk
//   - RetrievalResult: A scored chunk produced per query
//   - AuditFinding / AuditReport: Grounding verdicts for generated answers
//   - FrameworkStatus / CorpusStatus: Ingestion completeness counts
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
