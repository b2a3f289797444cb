package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
)

// mockEmbedder is a deterministic in-process embedding service. Vectors
// are looked up by exact text; unknown texts fall back to defaultVec.
type mockEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	defaultVec []float32
	dims       int
	pingErr    error
	failTexts  map[string]bool
	calls      int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder(dims int) *mockEmbedder {
	vec := make([]float32, dims)
	if dims > 0 {
		vec[0] = 1
	}
	return &mockEmbedder{
		vectors:    make(map[string][]float32),
		defaultVec: vec,
		dims:       dims,
		failTexts:  make(map[string]bool),
	}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failTexts[text] {
		return nil, fmt.Errorf("inference failed for %q", text)
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.defaultVec, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelID() string { return "mock-embed" }

func (m *mockEmbedder) ModelVersion() string { return "test" }

func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) embedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failingChunkStore wraps another chunk store and fails ReplaceChunks
// for one control, exercising per-record error isolation.
type failingChunkStore struct {
	driven.ChunkStore
	failControlID string
}

func (s *failingChunkStore) ReplaceChunks(ctx context.Context, framework domain.Framework, controlID string, chunks []domain.Chunk) error {
	if controlID == s.failControlID {
		return fmt.Errorf("storage write rejected")
	}
	return s.ChunkStore.ReplaceChunks(ctx, framework, controlID, chunks)
}
