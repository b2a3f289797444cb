package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/index/vector"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/storage/memory"
	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

func seedChunks(t *testing.T, store *memory.ChunkStore, controlID string, contents ...string) []domain.Chunk {
	t.Helper()
	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			ID:        domain.ChunkID(domain.FrameworkISO27001, controlID, i),
			ControlID: controlID,
			Framework: domain.FrameworkISO27001,
			Content:   content,
			Index:     i,
		}
	}
	require.NoError(t, store.ReplaceChunks(context.Background(), domain.FrameworkISO27001, controlID, chunks))
	return chunks
}

func TestIndexService_EnsureEmbeddings_EmbedsAllMissing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	idx := vector.New()
	embedder := newMockEmbedder(3)
	chunks := seedChunks(t, store, "A.5.1", "first chunk", "second chunk", "third chunk")

	svc := NewIndexService(store, store, idx, embedder, WithEmbedRate(10000))
	report, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Equal(t, "mock-embed", report.ModelID)

	for _, c := range chunks {
		entry, err := store.GetEmbedding(ctx, c.ID, "mock-embed")
		require.NoError(t, err)
		assert.Len(t, entry.Vector, 3)
		assert.Equal(t, "test", entry.ModelVersion)
	}
	assert.Equal(t, 3, idx.Dimensions())
}

func TestIndexService_EnsureEmbeddings_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	embedder := newMockEmbedder(3)
	seedChunks(t, store, "A.5.1", "first chunk", "second chunk")

	svc := NewIndexService(store, store, vector.New(), embedder, WithEmbedRate(10000))

	first, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Succeeded)

	second, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)
	assert.Zero(t, second.Attempted, "a full run leaves nothing pending")
	assert.Equal(t, 2, embedder.embedCalls())
}

func TestIndexService_EnsureEmbeddings_ResumesWithNewChunks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	embedder := newMockEmbedder(3)
	seedChunks(t, store, "A.5.1", "first chunk")

	svc := NewIndexService(store, store, vector.New(), embedder, WithEmbedRate(10000))
	_, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)

	seedChunks(t, store, "A.5.2", "late arrival")

	report, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted, "only the new chunk is pending")
	assert.Equal(t, 1, report.Succeeded)
}

func TestIndexService_EnsureEmbeddings_PingFailureAborts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	embedder := newMockEmbedder(3)
	embedder.pingErr = assert.AnError
	seedChunks(t, store, "A.5.1", "first chunk")

	svc := NewIndexService(store, store, vector.New(), embedder, WithEmbedRate(10000))
	_, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Zero(t, embedder.embedCalls(), "no inference after a failed probe")
}

func TestIndexService_EnsureEmbeddings_PerItemFailureSkipped(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	embedder := newMockEmbedder(3)
	embedder.failTexts["second chunk"] = true
	seedChunks(t, store, "A.5.1", "first chunk", "second chunk", "third chunk")

	svc := NewIndexService(store, store, vector.New(), embedder, WithEmbedRate(10000))
	report, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], domain.ChunkID(domain.FrameworkISO27001, "A.5.1", 1))

	// The failed chunk stays pending for the next run.
	retry, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Attempted)
}

func TestIndexService_EnsureEmbeddings_WrongVectorLengthFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	embedder := newMockEmbedder(3)
	embedder.vectors["first chunk"] = []float32{1, 0}
	seedChunks(t, store, "A.5.1", "first chunk")

	svc := NewIndexService(store, store, vector.New(), embedder, WithEmbedRate(10000))
	_, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexService_EnsureEmbeddings_StoredDimensionDriftFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore()
	embedder := newMockEmbedder(3)
	seedChunks(t, store, "A.5.1", "first chunk")
	require.NoError(t, store.SaveEmbedding(ctx, &domain.EmbeddingEntry{
		ChunkID: "other", Vector: []float32{1, 0, 0, 0}, ModelID: "mock-embed",
	}))

	svc := NewIndexService(store, store, vector.New(), embedder, WithEmbedRate(10000))
	_, err := svc.EnsureEmbeddings(ctx, domain.FrameworkISO27001)

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, embedder.embedCalls())
}

func TestIndexService_EnsureEmbeddings_NilEmbedderRejected(t *testing.T) {
	store := memory.NewChunkStore()
	svc := NewIndexService(store, store, nil, nil)

	_, err := svc.EnsureEmbeddings(context.Background(), domain.FrameworkISO27001)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
