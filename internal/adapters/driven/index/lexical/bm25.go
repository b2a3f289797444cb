// Package lexical provides an in-process BM25 inverted index over
// chunk content and headings.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// BM25 constants. k1 controls term-frequency saturation, b controls
// length normalisation; the values are the standard Robertson defaults.
const (
	k1 = 1.2
	b  = 0.75
)

// indexedDoc holds the per-chunk term statistics.
type indexedDoc struct {
	termFreq map[string]int
	length   int
}

// Index is an in-memory BM25 inverted index. The heading is indexed
// alongside the content so queries match control codes and titles.
type Index struct {
	mu       sync.RWMutex
	docs     map[string]*indexedDoc
	postings map[string]map[string]bool
	totalLen int
}

// New creates an empty lexical index.
func New() *Index {
	return &Index{
		docs:     make(map[string]*indexedDoc),
		postings: make(map[string]map[string]bool),
	}
}

// Index adds or updates a chunk.
func (x *Index) Index(_ context.Context, chunk domain.Chunk) error {
	terms := tokenize(chunk.Content + " " + chunk.Heading)

	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeLocked(chunk.ID)

	doc := &indexedDoc{termFreq: make(map[string]int), length: len(terms)}
	for _, t := range terms {
		doc.termFreq[t]++
	}
	x.docs[chunk.ID] = doc
	x.totalLen += doc.length

	for t := range doc.termFreq {
		posting, ok := x.postings[t]
		if !ok {
			posting = make(map[string]bool)
			x.postings[t] = posting
		}
		posting[chunk.ID] = true
	}
	return nil
}

// Remove deletes a chunk from the index.
func (x *Index) Remove(_ context.Context, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(chunkID)
	return nil
}

func (x *Index) removeLocked(chunkID string) {
	doc, ok := x.docs[chunkID]
	if !ok {
		return
	}
	x.totalLen -= doc.length
	delete(x.docs, chunkID)
	for t := range doc.termFreq {
		delete(x.postings[t], chunkID)
		if len(x.postings[t]) == 0 {
			delete(x.postings, t)
		}
	}
}

// Search scores every chunk sharing a term with the query and returns
// the top hits by BM25, ordered by score descending then chunk ID for
// determinism.
func (x *Index) Search(_ context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	terms := tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	n := len(x.docs)
	if n == 0 {
		return nil, nil
	}
	avgLen := float64(x.totalLen) / float64(n)

	scores := make(map[string]float64)
	for _, term := range terms {
		posting, ok := x.postings[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(len(posting))+0.5)/(float64(len(posting))+0.5))
		for chunkID := range posting {
			doc := x.docs[chunkID]
			tf := float64(doc.termFreq[term])
			norm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(doc.length)/avgLen))
			scores[chunkID] += idf * norm
		}
	}

	hits := make([]driven.LexicalHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.LexicalHit{ChunkID: chunkID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// tokenize lower-cases and splits on non-alphanumeric runes, keeping
// digits so control codes like "AC-2" become searchable terms.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
