package reindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
	"github.com/lectern-app/lectern/storage/badger"
)

func newTestStores(t *testing.T) (storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()
	documents, chunks, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return documents, chunks
}

func seedDocument(t *testing.T, documents storage.DocumentRepository, chunks storage.ChunkRepository, name string, chunkCount int) *core.Document {
	t.Helper()
	ctx := context.Background()

	doc := &core.Document{
		OwnerId:    "owner-1",
		FileName:   name,
		MimeType:   "application/pdf",
		State:      core.StateIndexed,
		ChunkCount: chunkCount,
	}
	doc, err := documents.AddDocument(ctx, doc)
	require.NoError(t, err)

	records := make([]*core.Chunk, chunkCount)
	for i := range records {
		records[i] = &core.Chunk{
			DocumentId: doc.Id,
			Index:      i,
			Text:       fmt.Sprintf("%s chunk %d with enough text to embed", name, i),
			Vector:     []float32{1, 0, 0, 0},
			Start:      i * 10,
			End:        i*10 + 10,
		}
	}
	_, err = chunks.ReplaceDocumentChunks(ctx, doc.Id, records)
	require.NoError(t, err)
	return doc
}

func TestChunkIterator_BatchesNeverSpanDocuments(t *testing.T) {
	ctx := context.Background()
	documents, chunks := newTestStores(t)

	docA := seedDocument(t, documents, chunks, "a.pdf", 3)
	docB := seedDocument(t, documents, chunks, "b.pdf", 5)

	it := NewChunkIterator(documents, chunks, 2)

	type call struct {
		docID core.ID
		size  int
	}
	var calls []call
	err := it.ForEach(ctx, func(documentID core.ID, batch []*core.Chunk) error {
		calls = append(calls, call{documentID, len(batch)})
		return nil
	})
	require.NoError(t, err)

	// 3 chunks at batch size 2 -> 2+1, 5 chunks -> 2+2+1
	require.Len(t, calls, 5)
	perDoc := map[core.ID]int{}
	for _, c := range calls {
		perDoc[c.docID] += c.size
		assert.LessOrEqual(t, c.size, 2)
	}
	assert.Equal(t, 3, perDoc[docA.Id])
	assert.Equal(t, 5, perDoc[docB.Id])
}

func TestChunkIterator_StopsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	documents, chunks := newTestStores(t)
	seedDocument(t, documents, chunks, "a.pdf", 4)

	it := NewChunkIterator(documents, chunks, 2)

	calls := 0
	err := it.ForEach(ctx, func(_ core.ID, _ []*core.Chunk) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCancellation(t *testing.T) {
	documents, chunks := newTestStores(t)
	seedDocument(t, documents, chunks, "a.pdf", 6)

	ctx, cancel := context.WithCancel(context.Background())
	it := NewChunkIterator(documents, chunks, 2)

	calls := 0
	err := it.ForEach(ctx, func(_ core.ID, _ []*core.Chunk) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_Count(t *testing.T) {
	ctx := context.Background()
	documents, chunks := newTestStores(t)
	seedDocument(t, documents, chunks, "a.pdf", 3)
	seedDocument(t, documents, chunks, "b.pdf", 5)

	it := NewChunkIterator(documents, chunks, 100)
	total, err := it.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, total)
}

func TestChunkIterator_EmptyDatabase(t *testing.T) {
	documents, chunks := newTestStores(t)
	it := NewChunkIterator(documents, chunks, 2)

	err := it.ForEach(context.Background(), func(_ core.ID, _ []*core.Chunk) error {
		t.Fatal("callback must not run on an empty database")
		return nil
	})
	assert.NoError(t, err)
}
