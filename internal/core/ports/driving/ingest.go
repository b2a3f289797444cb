package driving

import (
	"context"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// Ingestor segments control records and persists their chunk sets.
type Ingestor interface {
	// Ingest segments the given records and atomically replaces each
	// control's chunk set. Per-record failures are recorded in the
	// report and never abort the batch.
	Ingest(ctx context.Context, records []domain.ControlRecord) (*IngestReport, error)
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// ID identifies this run.
	ID string

	// Controls is the number of records processed.
	Controls int

	// Chunks is the total number of chunks produced.
	Chunks int

	// EmptyBodies is the number of records that produced zero chunks.
	EmptyBodies int

	// Failed is the number of records that could not be persisted.
	Failed int

	// Errors holds one message per failed record.
	Errors []string
}
