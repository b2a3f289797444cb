package driving

import (
	"context"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// Retriever answers queries with a ranked list of grounding chunks.
type Retriever interface {
	// Retrieve blends lexical and semantic relevance into a ranked
	// top-k result. Fewer candidates than k is not an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResponse, error)
}

// Auditor validates a generated answer against its retrieved context.
type Auditor interface {
	// Validate extracts the answer's citations, verifies each against
	// the retrieved set and scores the answer's grounding.
	Validate(ctx context.Context, answerText string, retrieved []domain.RetrievalResult) (*domain.AuditReport, error)
}

// StatusReporter reconciles ingestion progress. Strictly read-side: it
// never mutates chunk or embedding state.
type StatusReporter interface {
	// Status reports per-framework counts plus global completeness.
	Status(ctx context.Context, frameworks []domain.Framework) (*domain.CorpusStatus, error)
}
