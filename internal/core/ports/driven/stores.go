package driven

import (
	"context"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// ControlStore persists the source control records handed over by the
// ingestion collaborator. Records are kept so the status tracker can
// reconcile record counts against chunk counts.
type ControlStore interface {
	// SaveControl stores or updates a control record.
	SaveControl(ctx context.Context, record *domain.ControlRecord) error

	// GetControl retrieves a control by framework and ID.
	GetControl(ctx context.Context, framework domain.Framework, controlID string) (*domain.ControlRecord, error)

	// ListControls returns all controls for a framework.
	ListControls(ctx context.Context, framework domain.Framework) ([]domain.ControlRecord, error)

	// CountControls returns the number of controls for a framework.
	CountControls(ctx context.Context, framework domain.Framework) (int, error)
}

// ChunkStore persists chunks. Backed by SQLite for durable runs and by
// an in-memory twin for tests.
type ChunkStore interface {
	// ReplaceChunks atomically replaces the whole chunk set for a
	// control (delete-then-insert in one transaction). Re-segmentation
	// must never leave a stale partial chunk beside new ones.
	ReplaceChunks(ctx context.Context, framework domain.Framework, controlID string, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListChunks returns all chunks for a control in index order.
	ListChunks(ctx context.Context, framework domain.Framework, controlID string) ([]domain.Chunk, error)

	// ListChunksByFramework returns all chunks for a framework.
	ListChunksByFramework(ctx context.Context, framework domain.Framework) ([]domain.Chunk, error)

	// ListChunksMissingEmbeddings returns chunks without a stored
	// embedding for the given model, in deterministic order. This
	// drives resumable batch indexing: a chunk created after a snapshot
	// is simply picked up on the next run.
	ListChunksMissingEmbeddings(ctx context.Context, framework domain.Framework, modelID string) ([]domain.Chunk, error)

	// CountChunks returns the number of chunks for a framework.
	CountChunks(ctx context.Context, framework domain.Framework) (int, error)

	// CountChunksWithEmbeddings returns how many of a framework's
	// chunks have a stored embedding for the given model.
	CountChunksWithEmbeddings(ctx context.Context, framework domain.Framework, modelID string) (int, error)
}

// EmbeddingStore persists embedding entries, one per chunk per model.
type EmbeddingStore interface {
	// SaveEmbedding stores an entry. Saving twice for the same chunk
	// and model upserts.
	SaveEmbedding(ctx context.Context, entry *domain.EmbeddingEntry) error

	// GetEmbedding retrieves the entry for a chunk and model.
	GetEmbedding(ctx context.Context, chunkID, modelID string) (*domain.EmbeddingEntry, error)

	// Dimensions returns the vector dimension already stored for the
	// model, or 0 when no entries exist yet. Used to detect dimension
	// drift before it corrupts similarity math.
	Dimensions(ctx context.Context, modelID string) (int, error)
}
