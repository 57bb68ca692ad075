package reindex

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/ai/mock"
	"github.com/lectern-app/lectern/core"
)

func fastConfig(dimension int) *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
		Dimension:      dimension,
	}
}

func TestReindexer_ReembedsEveryChunk(t *testing.T) {
	ctx := context.Background()
	documents, chunks := newTestStores(t)

	docA := seedDocument(t, documents, chunks, "a.pdf", 3)
	docB := seedDocument(t, documents, chunks, "b.pdf", 5)

	embedder := mock.NewMockEmbedder(4)
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0, 0, 3, 4} // normalizes to {0, 0, 0.6, 0.8}
		}
		return out, nil
	}

	var buf bytes.Buffer
	reindexer, err := NewReindexer(documents, chunks, embedder, fastConfig(4), &buf)
	require.NoError(t, err)
	require.NoError(t, reindexer.Run(ctx))

	for _, docID := range []core.ID{docA.Id, docB.Id} {
		stored, err := chunks.GetDocumentChunks(ctx, docID)
		require.NoError(t, err)
		for _, chunk := range stored {
			assert.InDeltaSlice(t, []float32{0, 0, 0.6, 0.8}, chunk.Vector, 1e-5)
		}
	}

	assert.Contains(t, buf.String(), "Starting reindex of 8 chunks")
	assert.Contains(t, buf.String(), "Reindex complete. Processed 8 chunks")
}

func TestReindexer_DimensionMismatchAborts(t *testing.T) {
	ctx := context.Background()
	documents, chunks := newTestStores(t)
	doc := seedDocument(t, documents, chunks, "a.pdf", 2)

	embedder := mock.NewMockEmbedder(4)
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0} // wrong length
		}
		return out, nil
	}

	var buf bytes.Buffer
	reindexer, err := NewReindexer(documents, chunks, embedder, fastConfig(4), &buf)
	require.NoError(t, err)

	err = reindexer.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")

	// The old vectors survive an aborted run
	stored, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	for _, chunk := range stored {
		assert.Equal(t, []float32{1, 0, 0, 0}, chunk.Vector)
	}
}

func TestReindexer_EmptyDatabase(t *testing.T) {
	documents, chunks := newTestStores(t)

	var buf bytes.Buffer
	reindexer, err := NewReindexer(documents, chunks, mock.NewMockEmbedder(4), fastConfig(4), &buf)
	require.NoError(t, err)

	require.NoError(t, reindexer.Run(context.Background()))
	assert.Contains(t, buf.String(), "No chunks found")
}

func TestNewReindexer_Validation(t *testing.T) {
	documents, chunks := newTestStores(t)
	embedder := mock.NewMockEmbedder(4)

	_, err := NewReindexer(nil, chunks, embedder, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewReindexer(documents, nil, embedder, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewReindexer(documents, chunks, nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
