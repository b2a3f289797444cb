package domain

import "fmt"

// Chunk represents a token-bounded segment of a control's body text.
// Chunks are the atomic unit of retrieval. They are immutable; when a
// control's body changes, re-segmentation replaces the whole chunk set
// for that control.
type Chunk struct {
	// ID is deterministic: framework, control ID and chunk index always
	// derive the same identifier, so re-segmentation upserts cleanly.
	ID string

	// ControlID links to the parent control.
	ControlID string

	// Framework scopes the control identifier.
	Framework Framework

	// Heading is the extracted heading line, if the control body started
	// with one. Empty when no heading was detected or preservation was
	// disabled.
	Heading string

	// Content is the chunk text. When a heading was extracted it is
	// prepended verbatim to the first chunk's content.
	Content string

	// TokenCount is the estimated token count of Content. The estimate
	// comes from a character-length proxy, not a real tokenizer.
	TokenCount int

	// Index is the ordinal position within the control, starting at 0.
	// Emission order is significant and preserved through indexing.
	Index int

	// OverlapTokensPrev is the estimated token count shared with the
	// previous chunk's tail. Zero for the first chunk.
	OverlapTokensPrev int

	// OverlapTokensNext is the estimated token count shared with the
	// next chunk's head. Zero for the last chunk.
	OverlapTokensNext int
}

// ChunkID derives the deterministic chunk identifier.
func ChunkID(framework Framework, controlID string, index int) string {
	return fmt.Sprintf("%s:%s:%04d", framework, controlID, index)
}

// EmbeddingEntry is the stored vector representation of a chunk.
// At most one entry exists per chunk per model. The vector dimension is
// fixed per model and uniform across all entries so similarity scores
// stay comparable.
type EmbeddingEntry struct {
	// ChunkID links to the embedded chunk.
	ChunkID string

	// Vector is the embedding, little-endian float32 on disk.
	Vector []float32

	// ModelID names the embedding model that produced the vector.
	ModelID string

	// ModelVersion pins the model revision. Mixing versions within one
	// model ID is a consistency error.
	ModelVersion string
}
