package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/ai/mock"
	"github.com/lectern-app/lectern/core"
)

func TestBatchEmbedder_PreservesOrderAcrossSubBatches(t *testing.T) {
	embedder := mock.NewMockEmbedder(4)
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		out := make([][]float32, len(texts))
		for i, text := range texts {
			// Encode the text's ordinal so order is checkable
			var ord float32
			fmt.Sscanf(text, "text-%f", &ord)
			out[i] = []float32{ord, 0, 0, 0}
		}
		return out, nil
	}

	be := newBatchEmbedder(embedder, 2, 4, nil)

	texts := make([]string, 5)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	vectors, err := be.embedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	assert.Equal(t, 3, calls, "5 texts at batch size 2 means 3 sub-batches")
	for i, vector := range vectors {
		assert.Equal(t, float32(i), vector[0])
	}
}

func TestBatchEmbedder_IdentifiesFailingSubBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := mock.NewMockEmbedder(4)
	call := 0
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		call++
		if call > 1 {
			// Cancel so the per-call retry aborts instead of sleeping
			cancel()
			return nil, errors.New("provider overloaded")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0, 0}
		}
		return out, nil
	}

	be := newBatchEmbedder(embedder, 2, 4, nil)

	_, err := be.embedAll(ctx, []string{"a", "b", "c", "d", "e"})
	require.Error(t, err)
	// The error names the failing range, not just "embedding failed"
	assert.Contains(t, err.Error(), "2-3")
	assert.Equal(t, core.KindTransient, core.AsProcessingError(err).Kind)
}

func TestBatchEmbedder_WrongDimensionIsConfigError(t *testing.T) {
	embedder := mock.NewMockEmbedder(4)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0, 0}
		}
		// Third text comes back with the wrong dimension
		if len(texts) >= 3 {
			out[2] = []float32{1, 0}
		}
		return out, nil
	}

	be := newBatchEmbedder(embedder, 32, 4, nil)

	_, err := be.embedAll(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.Error(t, err)

	pe := core.AsProcessingError(err)
	assert.Equal(t, core.KindConfig, pe.Kind)
	assert.False(t, pe.Retryable())
	assert.Contains(t, pe.Message, "got 2, want 4")
}

func TestBatchEmbedder_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder(4)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0, 0, 0}}, nil // silently dropped items
	}

	be := newBatchEmbedder(embedder, 32, 4, nil)

	_, err := be.embedAll(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 vectors for 2 texts")
}

func TestBatchEmbedder_EmptyInput(t *testing.T) {
	be := newBatchEmbedder(mock.NewMockEmbedder(4), 32, 4, nil)
	vectors, err := be.embedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
