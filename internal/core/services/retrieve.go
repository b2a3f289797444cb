package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driving"
	"github.com/zeegglar/GRCora-sub003/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// DefaultTopK is the result count when the caller does not set one.
const DefaultTopK = 10

// candidateMultiplier widens the per-signal candidate pull so the
// blended union has enough rows to fill top-k after thresholding.
const candidateMultiplier = 3

// scoredCandidate accumulates per-signal scores before blending.
type scoredCandidate struct {
	lexical  float64
	semantic float64
}

// RetrievalService blends lexical and semantic relevance into one
// ranked result list.
type RetrievalService struct {
	chunkStore   driven.ChunkStore
	lexicalIndex driven.LexicalIndex
	vectorIndex  driven.VectorIndex
	embedder     driven.EmbeddingService
}

// NewRetrievalService creates a new hybrid retrieval service.
// lexicalIndex, vectorIndex and embedder may individually be nil; the
// corresponding signal then scores zero for every candidate.
func NewRetrievalService(
	chunkStore driven.ChunkStore,
	lexicalIndex driven.LexicalIndex,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		chunkStore:   chunkStore,
		lexicalIndex: lexicalIndex,
		vectorIndex:  vectorIndex,
		embedder:     embedder,
	}
}

// Retrieve executes a hybrid query and returns the top-k chunks by
// blended score. Fewer candidates than k returns all of them; zero
// candidates above the threshold returns an explicit empty result with
// LowConfidence set.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResponse, error) {
	if s.chunkStore == nil {
		return nil, domain.ErrStoreUnavailable
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.RetrievalResponse{LowConfidence: true}, nil
	}

	k := opts.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	weights := opts.Weights.Normalized()
	logger.Debug("TopK: %d, weights: lexical=%.2f semantic=%.2f, threshold=%.2f",
		k, weights.Lexical, weights.Semantic, opts.MatchThreshold)

	pull := k * candidateMultiplier
	candidates := make(map[string]*scoredCandidate)

	if err := s.collectLexical(ctx, query, pull, candidates); err != nil {
		return nil, err
	}
	if err := s.collectSemantic(ctx, query, pull, candidates); err != nil {
		return nil, err
	}

	logger.Debug("Candidate union: %d chunks", len(candidates))

	results, err := s.hydrate(ctx, candidates, weights, opts)
	if err != nil {
		return nil, fmt.Errorf("hydrate candidates: %w", err)
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}

	resp := &domain.RetrievalResponse{Results: results}
	if len(results) == 0 {
		resp.LowConfidence = true
		logger.Info("No candidates above threshold %.2f, flagging low confidence", opts.MatchThreshold)
	}
	logger.Info("Returning %d results", len(results))
	return resp, nil
}

// collectLexical scores keyword candidates. BM25 scores are normalised
// against the best hit so the lexical signal lands in [0,1].
func (s *RetrievalService) collectLexical(
	ctx context.Context, query string, limit int, candidates map[string]*scoredCandidate,
) error {
	if s.lexicalIndex == nil {
		logger.Debug("Lexical index unavailable, skipping keyword signal")
		return nil
	}

	hits, err := s.lexicalIndex.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("lexical search: %w", err)
	}
	logger.Debug("Lexical search: %d hits", len(hits))

	if len(hits) == 0 {
		return nil
	}

	best := hits[0].Score
	for _, h := range hits {
		if h.Score > best {
			best = h.Score
		}
	}
	if best <= 0 {
		return nil
	}

	for _, h := range hits {
		c := ensureCandidate(candidates, h.ChunkID)
		c.lexical = h.Score / best
	}
	return nil
}

// collectSemantic scores vector candidates by cosine similarity against
// the query embedding. A query embedded at a different dimension than
// the index is a hard configuration error.
func (s *RetrievalService) collectSemantic(
	ctx context.Context, query string, limit int, candidates map[string]*scoredCandidate,
) error {
	if s.vectorIndex == nil || s.embedder == nil {
		logger.Debug("Vector index or embedder unavailable, skipping semantic signal")
		return nil
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}

	if dim := s.vectorIndex.Dimensions(); dim != 0 && dim != len(queryVector) {
		return fmt.Errorf("%w: query embedded to %d dimensions, index holds %d",
			domain.ErrDimensionMismatch, len(queryVector), dim)
	}

	hits, err := s.vectorIndex.Search(ctx, queryVector, limit)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return err
		}
		return fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	for _, h := range hits {
		c := ensureCandidate(candidates, h.ChunkID)
		c.semantic = h.Similarity
	}
	return nil
}

// hydrate loads chunk metadata, blends scores and applies the framework
// filter and match threshold.
func (s *RetrievalService) hydrate(
	ctx context.Context,
	candidates map[string]*scoredCandidate,
	weights domain.Weights,
	opts domain.RetrievalOptions,
) ([]domain.RetrievalResult, error) {
	results := make([]domain.RetrievalResult, 0, len(candidates))

	for chunkID, c := range candidates {
		chunk, err := s.chunkStore.GetChunk(ctx, chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Superseded between indexing and lookup; skip.
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", chunkID, err)
		}

		if !frameworkAllowed(chunk.Framework, opts.Frameworks) {
			continue
		}

		blended := weights.Lexical*c.lexical + weights.Semantic*c.semantic
		if blended < opts.MatchThreshold {
			continue
		}

		results = append(results, domain.RetrievalResult{
			ChunkID:       chunk.ID,
			ControlID:     chunk.ControlID,
			Framework:     chunk.Framework,
			Content:       chunk.Content,
			ChunkIndex:    chunk.Index,
			LexicalScore:  c.lexical,
			SemanticScore: c.semantic,
			BlendedScore:  blended,
		})
	}

	return results, nil
}

// sortResults orders by blended score descending; ties break by higher
// semantic score, then by chunk index ascending, then by chunk ID so
// the ordering is fully deterministic.
func sortResults(results []domain.RetrievalResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].BlendedScore != results[j].BlendedScore {
			return results[i].BlendedScore > results[j].BlendedScore
		}
		if results[i].SemanticScore != results[j].SemanticScore {
			return results[i].SemanticScore > results[j].SemanticScore
		}
		if results[i].ChunkIndex != results[j].ChunkIndex {
			return results[i].ChunkIndex < results[j].ChunkIndex
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

func ensureCandidate(candidates map[string]*scoredCandidate, chunkID string) *scoredCandidate {
	if c, ok := candidates[chunkID]; ok {
		return c
	}
	c := &scoredCandidate{}
	candidates[chunkID] = c
	return c
}

func frameworkAllowed(framework domain.Framework, allowed []domain.Framework) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, f := range allowed {
		if f == framework {
			return true
		}
	}
	return false
}
