package driven

import "context"

// VectorIndex provides semantic similarity search operations.
// Exact or approximate nearest-neighbour structure is an implementation
// detail behind this port.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for the given chunk ID.
	// Inserting a vector whose dimension differs from the index's
	// existing entries returns domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, chunkID string, vector []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Dimensions returns the dimension of indexed vectors, or 0 when
	// the index is empty.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
