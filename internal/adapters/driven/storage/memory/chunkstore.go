package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
)

// Ensure ChunkStore implements both interfaces.
var (
	_ driven.ChunkStore     = (*ChunkStore)(nil)
	_ driven.EmbeddingStore = (*ChunkStore)(nil)
)

// embeddingKey scopes embedding entries by chunk and model.
type embeddingKey struct {
	chunkID string
	modelID string
}

// ChunkStore is an in-memory implementation of driven.ChunkStore and
// driven.EmbeddingStore. Keeping both behind one store mirrors the
// SQLite adapter, where the tables share a database.
type ChunkStore struct {
	mu         sync.RWMutex
	chunks     map[string]domain.Chunk
	embeddings map[embeddingKey]domain.EmbeddingEntry
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks:     make(map[string]domain.Chunk),
		embeddings: make(map[embeddingKey]domain.EmbeddingEntry),
	}
}

// ReplaceChunks atomically replaces the whole chunk set for a control.
func (s *ChunkStore) ReplaceChunks(_ context.Context, framework domain.Framework, controlID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chunk := range s.chunks {
		if chunk.Framework == framework && chunk.ControlID == controlID {
			delete(s.chunks, id)
		}
	}
	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// ListChunks returns all chunks for a control in index order.
func (s *ChunkStore) ListChunks(_ context.Context, framework domain.Framework, controlID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Framework == framework && chunk.ControlID == controlID {
			result = append(result, chunk)
		}
	}
	sortChunks(result)
	return result, nil
}

// ListChunksByFramework returns all chunks for a framework.
func (s *ChunkStore) ListChunksByFramework(_ context.Context, framework domain.Framework) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Framework == framework {
			result = append(result, chunk)
		}
	}
	sortChunks(result)
	return result, nil
}

// ListChunksMissingEmbeddings returns chunks without a stored embedding
// for the given model, in deterministic order.
func (s *ChunkStore) ListChunksMissingEmbeddings(_ context.Context, framework domain.Framework, modelID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Framework != framework {
			continue
		}
		if _, ok := s.embeddings[embeddingKey{chunkID: chunk.ID, modelID: modelID}]; ok {
			continue
		}
		result = append(result, chunk)
	}
	sortChunks(result)
	return result, nil
}

// CountChunks returns the number of chunks for a framework.
func (s *ChunkStore) CountChunks(_ context.Context, framework domain.Framework) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, chunk := range s.chunks {
		if chunk.Framework == framework {
			count++
		}
	}
	return count, nil
}

// CountChunksWithEmbeddings returns how many of a framework's chunks
// have a stored embedding for the given model.
func (s *ChunkStore) CountChunksWithEmbeddings(_ context.Context, framework domain.Framework, modelID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, chunk := range s.chunks {
		if chunk.Framework != framework {
			continue
		}
		if _, ok := s.embeddings[embeddingKey{chunkID: chunk.ID, modelID: modelID}]; ok {
			count++
		}
	}
	return count, nil
}

// SaveEmbedding stores an entry, upserting per chunk and model.
func (s *ChunkStore) SaveEmbedding(_ context.Context, entry *domain.EmbeddingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[embeddingKey{chunkID: entry.ChunkID, modelID: entry.ModelID}] = *entry
	return nil
}

// GetEmbedding retrieves the entry for a chunk and model.
func (s *ChunkStore) GetEmbedding(_ context.Context, chunkID, modelID string) (*domain.EmbeddingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.embeddings[embeddingKey{chunkID: chunkID, modelID: modelID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Dimensions returns the vector dimension stored for the model, or 0
// when no entries exist yet.
func (s *ChunkStore) Dimensions(_ context.Context, modelID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, entry := range s.embeddings {
		if key.modelID == modelID {
			return len(entry.Vector), nil
		}
	}
	return 0, nil
}

// sortChunks orders by framework, control and index for deterministic
// listings.
func sortChunks(chunks []domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Framework != chunks[j].Framework {
			return chunks[i].Framework < chunks[j].Framework
		}
		if chunks[i].ControlID != chunks[j].ControlID {
			return chunks[i].ControlID < chunks[j].ControlID
		}
		return chunks[i].Index < chunks[j].Index
	})
}
