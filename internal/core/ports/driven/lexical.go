package driven

import (
	"context"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// LexicalIndex provides keyword relevance scoring over chunk content
// and headings. Backed by an in-process BM25 inverted index.
type LexicalIndex interface {
	// Index adds or updates a chunk in the index.
	Index(ctx context.Context, chunk domain.Chunk) error

	// Remove deletes a chunk from the index.
	Remove(ctx context.Context, chunkID string) error

	// Search returns the best-matching chunk IDs with raw relevance
	// scores. Scores are engine-specific; callers normalise to [0,1].
	Search(ctx context.Context, query string, limit int) ([]LexicalHit, error)

	// Close releases resources.
	Close() error
}

// LexicalHit represents a keyword search result.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the raw relevance score (BM25).
	Score float64
}
