package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches
// vectors. EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - Hosted APIs (text-embedding-3-small and similar)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768).
	// This is determined by the model and must match stored entries.
	Dimensions() int

	// ModelID returns the identifier of the embedding model in use.
	ModelID() string

	// ModelVersion returns the model revision string.
	ModelVersion() string

	// Ping validates the service is reachable with a lightweight
	// request. Run once before a batch; a failed probe aborts the run
	// as a configuration error instead of failing item by item.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
