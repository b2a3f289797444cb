package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

func chunk(id, heading, content string) domain.Chunk {
	return domain.Chunk{ID: id, Heading: heading, Content: content}
}

func TestIndex_Search_RanksTermMatches(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Index(ctx, chunk("c1", "",
		"Access control requires account reviews. Access rights are revoked on termination.")))
	require.NoError(t, idx.Index(ctx, chunk("c2", "",
		"Backup copies of information shall be taken and tested regularly.")))
	require.NoError(t, idx.Index(ctx, chunk("c3", "",
		"Access to networks is restricted by policy.")))

	hits, err := idx.Search(ctx, "access control", 10)
	require.NoError(t, err)

	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ChunkID, "chunk matching both terms should rank first")
	for _, h := range hits {
		assert.NotEqual(t, "c2", h.ChunkID, "no query term occurs in c2")
		assert.Greater(t, h.Score, 0.0)
	}
}

func TestIndex_Search_MatchesHeading(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Index(ctx, chunk("c1", "AC-2 Account Management",
		"The organisation manages information system accounts.")))
	require.NoError(t, idx.Index(ctx, chunk("c2", "",
		"Unrelated encryption requirements for data at rest.")))

	hits, err := idx.Search(ctx, "AC-2", 10)
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	idx := New()

	hits, err := idx.Search(context.Background(), "anything", 10)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_LimitApplied(t *testing.T) {
	ctx := context.Background()
	idx := New()

	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		require.NoError(t, idx.Index(ctx, chunk(id, "", "encryption standard applies")))
	}

	hits, err := idx.Search(ctx, "encryption", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndex_Reindex_ReplacesOldTerms(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Index(ctx, chunk("c1", "", "encryption keys")))
	require.NoError(t, idx.Index(ctx, chunk("c1", "", "password rotation")))

	hits, err := idx.Search(ctx, "encryption", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "password", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_Remove(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Index(ctx, chunk("c1", "", "incident response plan")))
	require.NoError(t, idx.Remove(ctx, "c1"))

	hits, err := idx.Search(ctx, "incident", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTokenize_KeepsControlCodes(t *testing.T) {
	terms := tokenize("AC-2 governs account management.")

	assert.Contains(t, terms, "ac")
	assert.Contains(t, terms, "2")
	assert.Contains(t, terms, "account")
}

func TestIndex_Search_Deterministic(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Index(ctx, chunk("b", "", "same words here")))
	require.NoError(t, idx.Index(ctx, chunk("a", "", "same words here")))

	first, err := idx.Search(ctx, "same words", 10)
	require.NoError(t, err)
	second, err := idx.Search(ctx, "same words", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "a", first[0].ChunkID, "ties break by chunk ID")
}
