// Package services implements the driving ports: ingestion, embedding
// indexing, hybrid retrieval, citation auditing and status reporting.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driving"
	"github.com/zeegglar/GRCora-sub003/internal/logger"
	"github.com/zeegglar/GRCora-sub003/internal/segmenter"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService segments control records and persists their chunk sets.
// The lexicalIndex is optional; when nil, chunks are stored without
// keyword indexing and can be indexed later.
type IngestService struct {
	controlStore driven.ControlStore
	chunkStore   driven.ChunkStore
	lexicalIndex driven.LexicalIndex
	segmenter    *segmenter.Segmenter
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	controlStore driven.ControlStore,
	chunkStore driven.ChunkStore,
	lexicalIndex driven.LexicalIndex,
	seg *segmenter.Segmenter,
) *IngestService {
	if seg == nil {
		seg = segmenter.New()
	}
	return &IngestService{
		controlStore: controlStore,
		chunkStore:   chunkStore,
		lexicalIndex: lexicalIndex,
		segmenter:    seg,
	}
}

// Ingest segments each record and atomically replaces its chunk set.
// Malformed or empty records are logged and counted, never fatal; the
// batch is safely interruptible between records.
func (s *IngestService) Ingest(ctx context.Context, records []domain.ControlRecord) (*driving.IngestReport, error) {
	if s.chunkStore == nil || s.controlStore == nil {
		return nil, domain.ErrStoreUnavailable
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting %d control records", len(records))

	report := &driving.IngestReport{ID: uuid.New().String()}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record := records[i]
		report.Controls++

		if err := record.Validate(); err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("record %d: %v", i, err))
			logger.Warn("Skipping malformed record %d: %v", i, err)
			continue
		}

		chunks := s.segmenter.Segment(record)
		if len(chunks) == 0 {
			report.EmptyBodies++
			logger.Warn("Control %s/%s has an empty body, no chunks produced",
				record.Framework, record.ControlID)
			continue
		}

		if err := s.commitControl(ctx, &record, chunks); err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("control %s/%s: %v", record.Framework, record.ControlID, err))
			logger.Warn("Failed to persist control %s/%s: %v",
				record.Framework, record.ControlID, err)
			continue
		}

		report.Chunks += len(chunks)
		logger.Debug("Control %s/%s: %d chunks", record.Framework, record.ControlID, len(chunks))
	}

	logger.Info("Ingestion complete: %d controls, %d chunks, %d empty, %d failed",
		report.Controls, report.Chunks, report.EmptyBodies, report.Failed)
	return report, nil
}

// commitControl persists one record and its chunks, then refreshes the
// lexical index for the new chunk set.
func (s *IngestService) commitControl(ctx context.Context, record *domain.ControlRecord, chunks []domain.Chunk) error {
	if err := s.controlStore.SaveControl(ctx, record); err != nil {
		return fmt.Errorf("save control: %w", err)
	}

	if err := s.chunkStore.ReplaceChunks(ctx, record.Framework, record.ControlID, chunks); err != nil {
		return fmt.Errorf("replace chunks: %w", err)
	}

	if s.lexicalIndex == nil {
		return nil
	}
	for i := range chunks {
		if err := s.lexicalIndex.Index(ctx, chunks[i]); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunks[i].ID, err)
		}
	}
	return nil
}
