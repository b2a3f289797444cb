package driving

import (
	"context"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// Indexer computes and persists embeddings for chunks that lack them.
type Indexer interface {
	// EnsureEmbeddings embeds every chunk of the framework that has no
	// stored vector for the active model. The operation is idempotent
	// and resumable: a second run after a complete first run attempts
	// zero chunks.
	EnsureEmbeddings(ctx context.Context, framework domain.Framework) (*IndexReport, error)
}

// IndexReport summarises one embedding run.
type IndexReport struct {
	// ID identifies this run.
	ID string

	// ModelID is the embedding model used.
	ModelID string

	// Attempted is the number of chunks selected for embedding.
	Attempted int

	// Succeeded is the number of chunks embedded and committed.
	Succeeded int

	// Failed is the number of chunks skipped after a per-item error.
	Failed int

	// Errors holds one message per failed chunk.
	Errors []string
}
