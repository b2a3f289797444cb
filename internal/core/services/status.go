package services

import (
	"context"
	"fmt"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driving"
	"github.com/zeegglar/GRCora-sub003/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusReporter = (*StatusService)(nil)

// StatusService reconciles ingestion progress per framework. It is
// strictly read-side: safe to re-invoke at any time, it never mutates
// chunk or embedding state.
type StatusService struct {
	controlStore driven.ControlStore
	chunkStore   driven.ChunkStore
	modelID      string
}

// NewStatusService creates a status service reporting embedding
// coverage for the given model.
func NewStatusService(controlStore driven.ControlStore, chunkStore driven.ChunkStore, modelID string) *StatusService {
	return &StatusService{
		controlStore: controlStore,
		chunkStore:   chunkStore,
		modelID:      modelID,
	}
}

// Status reports per-framework counts plus a global completeness
// percentage over all requested frameworks.
func (s *StatusService) Status(ctx context.Context, frameworks []domain.Framework) (*domain.CorpusStatus, error) {
	if s.controlStore == nil || s.chunkStore == nil {
		return nil, domain.ErrStoreUnavailable
	}

	status := &domain.CorpusStatus{
		Frameworks: make([]domain.FrameworkStatus, 0, len(frameworks)),
	}

	totalChunks := 0
	totalEmbedded := 0

	for _, framework := range frameworks {
		fs, err := s.frameworkStatus(ctx, framework)
		if err != nil {
			return nil, err
		}
		totalChunks += fs.Chunks
		totalEmbedded += fs.ChunksWithEmbeddings
		status.Frameworks = append(status.Frameworks, fs)
	}

	if totalChunks > 0 {
		status.Completeness = 100 * float64(totalEmbedded) / float64(totalChunks)
	}

	logger.Debug("Status: %d frameworks, completeness %.1f%%",
		len(frameworks), status.Completeness)
	return status, nil
}

func (s *StatusService) frameworkStatus(ctx context.Context, framework domain.Framework) (domain.FrameworkStatus, error) {
	fs := domain.FrameworkStatus{Framework: framework}

	records, err := s.controlStore.CountControls(ctx, framework)
	if err != nil {
		return fs, fmt.Errorf("count controls for %s: %w", framework, err)
	}
	chunks, err := s.chunkStore.CountChunks(ctx, framework)
	if err != nil {
		return fs, fmt.Errorf("count chunks for %s: %w", framework, err)
	}
	embedded, err := s.chunkStore.CountChunksWithEmbeddings(ctx, framework, s.modelID)
	if err != nil {
		return fs, fmt.Errorf("count embedded chunks for %s: %w", framework, err)
	}

	fs.Records = records
	fs.Chunks = chunks
	fs.ChunksWithEmbeddings = embedded
	fs.MissingEmbeddings = chunks - embedded
	return fs, nil
}
