package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates an embedding's dimension differs
	// from previously stored vectors. Fatal: silent corruption of the
	// similarity math is worse than stopping.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelMismatch indicates a query embedding was produced by a
	// different model or version than the indexed vectors.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service failed
	// its pre-flight probe. The batch run aborts early with a
	// configuration-error report instead of failing item by item.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLexicalIndexUnavailable indicates the lexical index is not
	// configured. Keyword scoring is disabled without it.
	ErrLexicalIndexUnavailable = errors.New("lexical index unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Semantic scoring is disabled without it.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrStoreUnavailable indicates a required store is not configured.
	ErrStoreUnavailable = errors.New("store unavailable")
)
