package domain

// DefaultLexicalWeight and DefaultSemanticWeight are the blend defaults
// for hybrid retrieval.
const (
	DefaultLexicalWeight  = 0.4
	DefaultSemanticWeight = 0.6
)

// Weights controls the lexical/semantic blend of hybrid retrieval.
type Weights struct {
	// Lexical is the keyword-match weight.
	Lexical float64

	// Semantic is the vector-similarity weight.
	Semantic float64
}

// DefaultWeights returns the standard 0.4 / 0.6 blend.
func DefaultWeights() Weights {
	return Weights{Lexical: DefaultLexicalWeight, Semantic: DefaultSemanticWeight}
}

// Normalized returns weights scaled so they sum to 1.0. Non-positive
// totals fall back to the defaults rather than dividing by zero.
func (w Weights) Normalized() Weights {
	sum := w.Lexical + w.Semantic
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{Lexical: w.Lexical / sum, Semantic: w.Semantic / sum}
}

// RetrievalOptions configures a retrieval query.
type RetrievalOptions struct {
	// TopK is the maximum number of results. Fewer candidates than TopK
	// is not an error; all candidates are returned.
	TopK int

	// Weights is the lexical/semantic blend. Zero value means defaults.
	Weights Weights

	// MatchThreshold excludes chunks whose blended score falls below it,
	// even when they would otherwise place in the top K.
	MatchThreshold float64

	// Frameworks restricts candidates to the given frameworks.
	// Empty means the whole corpus.
	Frameworks []Framework
}

// RetrievalResult is a scored chunk produced for a single query.
// Results are ephemeral and never persisted.
type RetrievalResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// ControlID is the parent control, carried for citation checking.
	ControlID string

	// Framework scopes the control.
	Framework Framework

	// Content is the chunk text, used as grounding context.
	Content string

	// ChunkIndex is the chunk's ordinal position within its control.
	// Used as the final tie-break for deterministic ordering.
	ChunkIndex int

	// LexicalScore is the normalised keyword relevance in [0,1].
	// Zero when the chunk was not a lexical candidate.
	LexicalScore float64

	// SemanticScore is the cosine similarity in [0,1].
	// Zero when the chunk was not a semantic candidate.
	SemanticScore float64

	// BlendedScore is the weighted sum of the two signals.
	BlendedScore float64
}

// RetrievalResponse is the answer to a retrieval query.
type RetrievalResponse struct {
	// Results is ordered by BlendedScore descending; ties break by
	// higher SemanticScore, then by ChunkIndex ascending.
	Results []RetrievalResult

	// LowConfidence is set when the threshold filtered out every
	// candidate. The caller gets an explicit empty result instead of
	// padding with irrelevant chunks.
	LowConfidence bool
}
