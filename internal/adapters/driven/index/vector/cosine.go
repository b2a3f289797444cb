// Package vector provides an exact cosine-similarity index. It scans
// every stored vector per query; corpora in the tens of thousands of
// chunks stay well under a millisecond, and the driven.VectorIndex port
// leaves room for an approximate structure behind the same contract.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact nearest-neighbour index over unit-normalised
// vectors.
type Index struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	norms   map[string]float64
	dims    int
}

// New creates an empty vector index.
func New() *Index {
	return &Index{
		vectors: make(map[string][]float32),
		norms:   make(map[string]float64),
	}
}

// Upsert inserts or replaces the vector for a chunk. The first vector
// fixes the index dimension; later vectors must match it.
func (x *Index) Upsert(_ context.Context, chunkID string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for chunk %s", domain.ErrInvalidInput, chunkID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dims == 0 {
		x.dims = len(vector)
	} else if len(vector) != x.dims {
		return fmt.Errorf("%w: got %d dimensions, index holds %d",
			domain.ErrDimensionMismatch, len(vector), x.dims)
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)
	x.vectors[chunkID] = stored
	x.norms[chunkID] = norm(stored)
	return nil
}

// Delete removes a vector from the index.
func (x *Index) Delete(_ context.Context, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.vectors, chunkID)
	delete(x.norms, chunkID)
	if len(x.vectors) == 0 {
		x.dims = 0
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity, ordered by
// similarity descending then chunk ID for determinism.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index holds %d",
			domain.ErrDimensionMismatch, len(query), x.dims)
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(x.vectors))
	for chunkID, vec := range x.vectors {
		denominator := queryNorm * x.norms[chunkID]
		if denominator == 0 {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    chunkID,
			Similarity: dot(query, vec) / denominator,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Dimensions returns the dimension of indexed vectors, or 0 when empty.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
