package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driving"
	"github.com/zeegglar/GRCora-sub003/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Indexer = (*IndexService)(nil)

// DefaultBatchSize bounds how many chunks are pulled into memory per
// embedding round.
const DefaultBatchSize = 10

// DefaultEmbedRate is the sustained embedding-call rate per second.
// A token bucket paces calls so the inference service is never flooded;
// this replaces a fixed inter-item sleep.
const DefaultEmbedRate = 5.0

// IndexService computes embeddings for chunks that lack them.
type IndexService struct {
	chunkStore     driven.ChunkStore
	embeddingStore driven.EmbeddingStore
	vectorIndex    driven.VectorIndex
	embedder       driven.EmbeddingService
	batchSize      int
	limiter        *rate.Limiter
}

// IndexOption configures the index service.
type IndexOption func(*IndexService)

// WithBatchSize sets the embedding batch size.
func WithBatchSize(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithEmbedRate sets the sustained embedding calls per second.
func WithEmbedRate(perSecond float64) IndexOption {
	return func(s *IndexService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewIndexService creates a new embedding index service.
// The vectorIndex is optional; when nil, vectors are persisted to the
// embedding store only and the similarity index is rebuilt elsewhere.
func NewIndexService(
	chunkStore driven.ChunkStore,
	embeddingStore driven.EmbeddingStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		chunkStore:     chunkStore,
		embeddingStore: embeddingStore,
		vectorIndex:    vectorIndex,
		embedder:       embedder,
		batchSize:      DefaultBatchSize,
		limiter:        rate.NewLimiter(rate.Limit(DefaultEmbedRate), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureEmbeddings embeds every chunk of the framework lacking a stored
// vector for the active model. Idempotent: a second run after a full
// first run attempts zero chunks. Per-item failures are counted and
// skipped; a failed pre-flight probe or a dimension mismatch aborts the
// run. Each item commits individually, so cancellation between items
// never corrupts committed work.
func (s *IndexService) EnsureEmbeddings(ctx context.Context, framework domain.Framework) (*driving.IndexReport, error) {
	if s.chunkStore == nil || s.embeddingStore == nil {
		return nil, domain.ErrStoreUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Embedding Index")

	report := &driving.IndexReport{
		ID:      uuid.New().String(),
		ModelID: s.embedder.ModelID(),
	}

	// Pre-flight probe: one failed call here means misconfiguration,
	// not a transient item failure.
	if err := s.embedder.Ping(ctx); err != nil {
		logger.Warn("Embedding service probe failed: %v", err)
		return report, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	storedDim, err := s.embeddingStore.Dimensions(ctx, report.ModelID)
	if err != nil {
		return report, fmt.Errorf("read stored dimensions: %w", err)
	}
	if storedDim != 0 && storedDim != s.embedder.Dimensions() {
		return report, fmt.Errorf("%w: store has %d, model %s produces %d",
			domain.ErrDimensionMismatch, storedDim, report.ModelID, s.embedder.Dimensions())
	}

	pending, err := s.chunkStore.ListChunksMissingEmbeddings(ctx, framework, report.ModelID)
	if err != nil {
		return report, fmt.Errorf("list pending chunks: %w", err)
	}

	logger.Info("Framework %s: %d chunks need embeddings (model %s)",
		framework, len(pending), report.ModelID)

	for start := 0; start < len(pending); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := s.embedBatch(ctx, pending[start:end], report); err != nil {
			return report, err
		}
	}

	logger.Info("Embedding run complete: attempted=%d succeeded=%d failed=%d",
		report.Attempted, report.Succeeded, report.Failed)
	return report, nil
}

// embedBatch embeds one batch, committing strictly per item.
func (s *IndexService) embedBatch(ctx context.Context, chunks []domain.Chunk, report *driving.IndexReport) error {
	for i := range chunks {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		chunk := chunks[i]
		report.Attempted++

		vector, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			// One bad record never aborts the batch.
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("chunk %s: %v", chunk.ID, err))
			logger.Warn("Embedding failed for chunk %s: %v", chunk.ID, err)
			continue
		}

		if len(vector) != s.embedder.Dimensions() {
			return fmt.Errorf("%w: model %s returned %d dimensions, expected %d",
				domain.ErrDimensionMismatch, report.ModelID, len(vector), s.embedder.Dimensions())
		}

		entry := domain.EmbeddingEntry{
			ChunkID:      chunk.ID,
			Vector:       vector,
			ModelID:      report.ModelID,
			ModelVersion: s.embedder.ModelVersion(),
		}
		if err := s.embeddingStore.SaveEmbedding(ctx, &entry); err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("chunk %s: save: %v", chunk.ID, err))
			logger.Warn("Saving embedding for chunk %s failed: %v", chunk.ID, err)
			continue
		}

		if s.vectorIndex != nil {
			if err := s.vectorIndex.Upsert(ctx, chunk.ID, vector); err != nil {
				return fmt.Errorf("vector index upsert %s: %w", chunk.ID, err)
			}
		}

		report.Succeeded++
		logger.Debug("Embedded chunk %s (%d dims)", chunk.ID, len(vector))
	}
	return nil
}
