package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/core"
)

const (
	// per-call retry inside one pipeline attempt; the queue owns the
	// coarser attempt-level retry policy
	embedCallAttempts  = 3
	embedCallBaseDelay = 500 * time.Millisecond
)

// batchEmbedder turns chunk texts into validated, fixed-dimension
// vectors. Large inputs are partitioned into bounded sub-batches to
// bound peak memory and provider request size.
type batchEmbedder struct {
	embedder  ai.Embedder
	batchSize int
	dimension int
	logger    *slog.Logger
}

func newBatchEmbedder(embedder ai.Embedder, batchSize, dimension int, logger *slog.Logger) *batchEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &batchEmbedder{
		embedder:  embedder,
		batchSize: batchSize,
		dimension: dimension,
		logger:    logger.With("component", "batch-embedder"),
	}
}

// embedAll returns one vector per text, preserving input order. A
// failing sub-batch is identified in the error instead of being
// silently dropped; a vector of the wrong dimension is a fatal
// configuration error.
func (b *batchEmbedder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		sub := texts[start:end]

		b.logger.Debug("embedding sub-batch", "from", start, "to", end, "total", len(texts))

		var batch [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embErr error
			batch, embErr = b.embedder.EmbedTexts(ctx, sub)
			return embErr
		}, embedCallAttempts, embedCallBaseDelay)
		if err != nil {
			return nil, core.TransientErr("embedding sub-batch %d-%d of %d failed: %v",
				start, end-1, len(texts), err)
		}
		if len(batch) != len(sub) {
			return nil, core.TransientErr("embedding sub-batch %d-%d returned %d vectors for %d texts",
				start, end-1, len(batch), len(sub))
		}

		for i, vector := range batch {
			if len(vector) != b.dimension {
				return nil, core.ConfigErr("embedding dimension mismatch on text %d: got %d, want %d",
					start+i, len(vector), b.dimension)
			}
		}

		vectors = append(vectors, batch...)
	}

	return vectors, nil
}
