package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/ai/mock"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
	"github.com/lectern-app/lectern/storage/badger"
)

// runeCounter measures the budget in runes so tests are exact.
type runeCounter struct{}

func (runeCounter) Count(text string) int { return len([]rune(text)) }

func queryEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder(len(vector))
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func newTestChunkRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	_, chunks, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return chunks
}

func seedChunks(t *testing.T, chunks storage.ChunkRepository, docID core.ID, specs []struct {
	text   string
	vector []float32
	page   int
}) []*core.Chunk {
	t.Helper()
	records := make([]*core.Chunk, len(specs))
	offset := 0
	for i, s := range specs {
		records[i] = &core.Chunk{
			DocumentId: docID,
			Index:      i,
			Text:       s.text,
			Vector:     core.NormalizeVector(s.vector),
			Start:      offset,
			End:        offset + len([]rune(s.text)),
			Page:       s.page,
		}
		offset += len([]rune(s.text))
	}
	stored, err := chunks.ReplaceDocumentChunks(context.Background(), docID, records)
	require.NoError(t, err)
	return stored
}

func TestRetriever_RanksAndAssemblesWithCitations(t *testing.T) {
	ctx := context.Background()
	chunks := newTestChunkRepo(t)

	seedChunks(t, chunks, 1, []struct {
		text   string
		vector []float32
		page   int
	}{
		{"The mitochondrion is the powerhouse of the cell.", []float32{0.8, 0.6, 0, 0}, 1},
		{"Cellular respiration produces ATP in the mitochondria.", []float32{1, 0, 0, 0}, 2},
		{"The treaty of Westphalia ended the thirty years war.", []float32{0, 0, 1, 0}, 7},
	})

	retriever, err := NewRetriever(chunks, queryEmbedder([]float32{1, 0, 0, 0}), WithDimension(4))
	require.NoError(t, err)
	retriever.SetTokenCounter(runeCounter{})

	result, err := retriever.Retrieve(ctx, "where is ATP produced?", nil)
	require.NoError(t, err)
	require.False(t, result.Empty())

	// The orthogonal chunk is below the 0.60 threshold
	require.Len(t, result.Matches, 2)
	assert.Equal(t, 1, result.Matches[0].Chunk.Index, "exact match ranks first")
	assert.Equal(t, 0, result.Matches[1].Chunk.Index)
	assert.InDelta(t, 1.0, result.Matches[0].Score, 1e-5)
	assert.InDelta(t, 0.8, result.Matches[1].Score, 1e-5)

	assert.Contains(t, result.Text, "Cellular respiration")
	assert.Contains(t, result.Text, "mitochondrion")
	assert.NotContains(t, result.Text, "Westphalia")

	require.Len(t, result.Citations, 2)
	assert.Equal(t, core.ID(1), result.Citations[0].DocumentId)
	assert.Equal(t, 2, result.Citations[0].Page)
	assert.NotZero(t, result.Citations[0].ChunkId)
	assert.NotEmpty(t, result.Citations[0].Excerpt)
}

func TestRetriever_EmptyContextWhenNothingClearsThreshold(t *testing.T) {
	ctx := context.Background()
	chunks := newTestChunkRepo(t)

	seedChunks(t, chunks, 1, []struct {
		text   string
		vector []float32
		page   int
	}{
		{"Completely unrelated material about medieval treaties.", []float32{0, 1, 0, 0}, 1},
	})

	retriever, err := NewRetriever(chunks, queryEmbedder([]float32{1, 0, 0, 0}), WithDimension(4))
	require.NoError(t, err)
	retriever.SetTokenCounter(runeCounter{})

	result, err := retriever.Retrieve(ctx, "quantum field theory", nil)
	require.NoError(t, err, "no relevant context is a result, not an error")
	assert.True(t, result.Empty())
	assert.Empty(t, result.Text)
	assert.Empty(t, result.Citations)
	assert.Zero(t, result.TokensUsed)
}

func TestRetriever_StopsBeforeExceedingTokenBudget(t *testing.T) {
	ctx := context.Background()
	chunks := newTestChunkRepo(t)

	first := strings.Repeat("a", 40)
	second := strings.Repeat("b", 40)
	seedChunks(t, chunks, 1, []struct {
		text   string
		vector []float32
		page   int
	}{
		{first, []float32{1, 0, 0, 0}, 1},
		{second, []float32{0.9, 0.1, 0, 0}, 1},
	})

	retriever, err := NewRetriever(chunks, queryEmbedder([]float32{1, 0, 0, 0}),
		WithDimension(4), WithTokenBudget(50))
	require.NoError(t, err)
	retriever.SetTokenCounter(runeCounter{})

	result, err := retriever.Retrieve(ctx, "aaa?", nil)
	require.NoError(t, err)

	// Both matches are relevant but only the first fits the budget
	assert.Len(t, result.Matches, 2)
	assert.Equal(t, first, result.Text)
	assert.Equal(t, 40, result.TokensUsed)
	assert.LessOrEqual(t, result.TokensUsed, 50)
	require.Len(t, result.Citations, 1)
}

func TestRetriever_ScopeRestrictsDocuments(t *testing.T) {
	ctx := context.Background()
	chunks := newTestChunkRepo(t)

	seedChunks(t, chunks, 1, []struct {
		text   string
		vector []float32
		page   int
	}{
		{"notes from document one", []float32{1, 0, 0, 0}, 1},
	})
	seedChunks(t, chunks, 2, []struct {
		text   string
		vector []float32
		page   int
	}{
		{"notes from document two", []float32{1, 0, 0, 0}, 1},
	})

	retriever, err := NewRetriever(chunks, queryEmbedder([]float32{1, 0, 0, 0}), WithDimension(4))
	require.NoError(t, err)
	retriever.SetTokenCounter(runeCounter{})

	result, err := retriever.Retrieve(ctx, "notes", []core.ID{2})
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, core.ID(2), result.Matches[0].Chunk.DocumentId)
}

func TestRetriever_QueryDimensionMismatchIsConfigError(t *testing.T) {
	chunks := newTestChunkRepo(t)

	retriever, err := NewRetriever(chunks, queryEmbedder([]float32{1, 0}), WithDimension(4))
	require.NoError(t, err)

	_, err = retriever.Retrieve(context.Background(), "anything", nil)
	require.Error(t, err)
	procErr := core.AsProcessingError(err)
	assert.Equal(t, core.KindConfig, procErr.Kind)
	assert.Contains(t, procErr.Message, "got 2, want 4")
}

func TestRetriever_EmptyQuery(t *testing.T) {
	chunks := newTestChunkRepo(t)
	retriever, err := NewRetriever(chunks, mock.NewMockEmbedder(4), WithDimension(4))
	require.NoError(t, err)

	_, err = retriever.Retrieve(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestNewRetriever_Validation(t *testing.T) {
	_, err := NewRetriever(nil, mock.NewMockEmbedder(4))
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	chunks := newTestChunkRepo(t)
	_, err = NewRetriever(chunks, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestHeuristicCounter(t *testing.T) {
	counter := heuristicCounter{}
	assert.Equal(t, 0, counter.Count(""))
	assert.Equal(t, 1, counter.Count("abcd"))
	assert.Equal(t, 2, counter.Count("abcde"))
}
