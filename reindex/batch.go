package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/ingest"
	"github.com/lectern-app/lectern/storage"
)

// BatchProcessor re-embeds one batch of chunks and updates their
// vectors in place.
type BatchProcessor struct {
	chunks         storage.ChunkRepository
	embedder       ai.Embedder
	dimension      int
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// dimension: the new model's vector length; every returned vector is validated against it
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(chunks storage.ChunkRepository, embedder ai.Embedder, dimension, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		chunks:         chunks,
		embedder:       embedder,
		dimension:      dimension,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process re-embeds a batch of chunks of one document and persists the
// new vectors. Vectors are normalized so cosine similarity stays valid.
func (bp *BatchProcessor) Process(ctx context.Context, documentID core.ID, batch []*core.Chunk) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := ingest.RetryWithBackoff(ctx, func() error {
		var embErr error
		vectors, embErr = bp.embedder.EmbedTexts(ctx, texts)
		return embErr
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}
	for i, vector := range vectors {
		if len(vector) != bp.dimension {
			return core.ConfigErr("re-embedding dimension mismatch on chunk %d of document %d: got %d, want %d",
				batch[i].Index, uint64(documentID), len(vector), bp.dimension)
		}
	}

	for i := range batch {
		batch[i].Vector = core.NormalizeVector(vectors[i])
	}

	if err := bp.chunks.UpdateChunkVectors(ctx, batch...); err != nil {
		return fmt.Errorf("failed to update chunk vectors: %w", err)
	}
	return nil
}
