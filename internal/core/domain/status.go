package domain

// FrameworkStatus reconciles ingestion progress for one framework.
// It is produced by a read-only pass over the chunk and embedding
// stores and is safe to recompute at any time.
type FrameworkStatus struct {
	// Framework is the framework these counts cover.
	Framework Framework

	// Records is the number of source control records.
	Records int

	// Chunks is the number of stored chunks.
	Chunks int

	// ChunksWithEmbeddings is the number of chunks with a stored vector
	// for the active model.
	ChunksWithEmbeddings int

	// MissingEmbeddings is Chunks minus ChunksWithEmbeddings.
	MissingEmbeddings int
}

// CorpusStatus aggregates per-framework progress.
type CorpusStatus struct {
	// Frameworks holds one status per requested framework, in request
	// order.
	Frameworks []FrameworkStatus

	// Completeness is the global percentage of chunks with embeddings,
	// in [0,100]. A corpus with zero chunks reports 0.
	Completeness float64
}
