package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/ai/mock"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/extract"
	"github.com/lectern-app/lectern/storage"
	"github.com/lectern-app/lectern/storage/badger"
)

// stubExtractor returns a canned result (or error) and counts calls.
type stubExtractor struct {
	res   *extract.Result
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, location, mimeType string) (*extract.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func extractedText(text string, pages int) *stubExtractor {
	return &stubExtractor{res: &extract.Result{
		Text:      text,
		PageCount: pages,
		WordCount: len(strings.Fields(text)),
		Language:  "eng",
		Excerpt:   text[:min(len(text), 80)],
	}}
}

func newTestPipeline(t *testing.T, extractor extract.Extractor, embedder ai.Embedder) (*Pipeline, storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()

	documents, chunks, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	pipeline, err := NewPipeline(documents, chunks, extractor, embedder, NewConfig(WithEmbedDimension(8)))
	require.NoError(t, err)
	return pipeline, documents, chunks
}

func addTestDocument(t *testing.T, documents storage.DocumentRepository) *core.Document {
	t.Helper()
	doc := &core.Document{
		OwnerId:  "owner-1",
		FileName: "anatomy.pdf",
		ByteSize: 2048,
		MimeType: "application/pdf",
		Location: "/uploads/anatomy.pdf",
		State:    core.StateQueued,
	}
	doc, err := documents.AddDocument(context.Background(), doc)
	require.NoError(t, err)
	return doc
}

func jobFor(doc *core.Document) *core.Job {
	return &core.Job{
		Id:         core.JobIDForDocument(doc.Id),
		DocumentId: doc.Id,
		OwnerId:    doc.OwnerId,
		Location:   doc.Location,
		Priority:   core.PriorityNormal,
		State:      core.JobInFlight,
	}
}

func TestPipeline_IndexesDocument(t *testing.T) {
	ctx := context.Background()

	// 4500 boundary-free runes split into 5 overlapping fragments at the
	// default chunker settings
	extractor := extractedText(strings.Repeat("x", 4500), 3)
	pipeline, documents, chunks := newTestPipeline(t, extractor, mock.NewMockEmbedder(8))

	doc := addTestDocument(t, documents)
	require.NoError(t, pipeline.Process(ctx, jobFor(doc)))

	got, err := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StateIndexed, got.State)
	assert.Equal(t, 100, got.Progress)
	assert.Nil(t, got.Failure)
	assert.Equal(t, 5, got.ChunkCount)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, "eng", got.Language)
	assert.False(t, got.StartedAt.IsZero())
	assert.False(t, got.CompletedAt.IsZero())

	stored, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	for i, c := range stored {
		assert.Equal(t, i, c.Index)
		assert.Len(t, c.Vector, 8)
		assert.GreaterOrEqual(t, c.Page, 1)
		assert.LessOrEqual(t, c.Page, 3)
	}
	assert.Equal(t, 0, stored[0].Start)
	assert.Equal(t, 4500, stored[4].End)
}

func TestPipeline_WrongDimensionFailsWithoutPersistingChunks(t *testing.T) {
	ctx := context.Background()

	embedder := mock.NewMockEmbedder(8)
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = make([]float32, 8)
			out[i][0] = 1
		}
		// Chunk 3 of 5 comes back with the wrong dimension
		if len(out) >= 3 {
			out[2] = []float32{1, 0}
		}
		return out, nil
	}

	extractor := extractedText(strings.Repeat("x", 4500), 2)
	pipeline, documents, chunks := newTestPipeline(t, extractor, embedder)

	doc := addTestDocument(t, documents)
	job := jobFor(doc)

	err := pipeline.Process(ctx, job)
	require.Error(t, err)
	assert.Equal(t, core.KindConfig, core.AsProcessingError(err).Kind)

	got, getErr := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, getErr)
	assert.Equal(t, core.StateFailed, got.State)
	require.NotNil(t, got.Failure)
	assert.Equal(t, core.KindConfig, got.Failure.Kind)
	assert.Equal(t, 1, got.Failure.Attempt)
	assert.Contains(t, got.Failure.Message, "dimension mismatch")

	// No chunk of the failed attempt was persisted
	stored, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipeline_ExtractionFailureRecordsInputError(t *testing.T) {
	ctx := context.Background()

	extractor := &stubExtractor{err: core.InputErr("corrupt xref table")}
	pipeline, documents, _ := newTestPipeline(t, extractor, mock.NewMockEmbedder(8))

	doc := addTestDocument(t, documents)
	err := pipeline.Process(ctx, jobFor(doc))
	require.Error(t, err)

	got, getErr := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, getErr)
	assert.Equal(t, core.StateFailed, got.State)
	require.NotNil(t, got.Failure)
	assert.Equal(t, core.KindInput, got.Failure.Kind)
	assert.Contains(t, got.Failure.Message, "corrupt xref table")
	assert.True(t, got.Failure.Retryable())
}

func TestPipeline_ShortTextIndexesWithZeroChunks(t *testing.T) {
	ctx := context.Background()

	// Below the minimum viable fragment length: nothing to index, but
	// the run still completes
	extractor := extractedText("tiny note.", 1)
	pipeline, documents, chunks := newTestPipeline(t, extractor, mock.NewMockEmbedder(8))

	doc := addTestDocument(t, documents)
	require.NoError(t, pipeline.Process(ctx, jobFor(doc)))

	got, err := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StateIndexed, got.State)
	assert.Equal(t, 0, got.ChunkCount)

	stored, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipeline_MissingDocumentIsDropped(t *testing.T) {
	ctx := context.Background()

	pipeline, _, _ := newTestPipeline(t, extractedText("whatever", 1), mock.NewMockEmbedder(8))

	job := &core.Job{
		Id:         core.JobIDForDocument(999),
		DocumentId: 999,
		State:      core.JobInFlight,
	}
	err := pipeline.Process(ctx, job)
	assert.ErrorIs(t, err, errDocumentGone)
}

func TestPipeline_RetryReplacesFailedAttempt(t *testing.T) {
	ctx := context.Background()

	// First run fails on every vector, second run embeds cleanly
	failing := true
	embedder := mock.NewMockEmbedder(8)
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			if failing {
				out[i] = []float32{1}
			} else {
				out[i] = make([]float32, 8)
				out[i][0] = 1
			}
		}
		return out, nil
	}

	extractor := extractedText(strings.Repeat("x", 4500), 2)
	pipeline, documents, chunks := newTestPipeline(t, extractor, embedder)

	doc := addTestDocument(t, documents)
	job := jobFor(doc)

	require.Error(t, pipeline.Process(ctx, job))
	failed, err := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StateFailed, failed.State)
	firstStart := failed.StartedAt

	// Retry: the failed document re-enters via QUEUED and the run
	// completes
	failing = false
	job.Attempts = 1
	require.NoError(t, pipeline.Process(ctx, job))

	got, err := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StateIndexed, got.State)
	assert.Nil(t, got.Failure)
	assert.Equal(t, firstStart, got.StartedAt, "start timestamp is set once, on the first attempt")

	stored, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestPipeline_RedeliveredJobRecoversStrandedDocument(t *testing.T) {
	ctx := context.Background()

	extractor := extractedText(strings.Repeat("x", 4500), 3)
	pipeline, documents, chunks := newTestPipeline(t, extractor, mock.NewMockEmbedder(8))

	// A worker crashed mid-run: the document sits in a mid-flight stage
	// and the queue redelivers the job after the lease expired.
	doc := addTestDocument(t, documents)
	for _, state := range []core.DocumentState{core.StateProcessing, core.StateExtracting} {
		doc.State = state
		doc.Progress = 40
		require.NoError(t, documents.UpdateDocument(ctx, doc))

		job := jobFor(doc)
		job.Attempts = 1
		require.NoError(t, pipeline.Process(ctx, job))

		got, err := documents.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StateIndexed, got.State, "redelivery from %s", state)
		assert.Equal(t, 100, got.Progress)
		assert.Nil(t, got.Failure)

		stored, err := chunks.GetDocumentChunks(ctx, doc.Id)
		require.NoError(t, err)
		assert.Len(t, stored, 5)
	}
}

func TestPipeline_StaleJobForIndexedDocumentIsDropped(t *testing.T) {
	ctx := context.Background()

	extractor := extractedText(strings.Repeat("x", 4500), 2)
	pipeline, documents, _ := newTestPipeline(t, extractor, mock.NewMockEmbedder(8))

	doc := addTestDocument(t, documents)
	require.NoError(t, pipeline.Process(ctx, jobFor(doc)))
	require.Equal(t, 1, extractor.calls)

	// A job enqueued for an already-indexed document is dropped without
	// touching the record
	err := pipeline.Process(ctx, jobFor(doc))
	assert.ErrorIs(t, err, errJobStale)
	assert.Equal(t, 1, extractor.calls, "stale job must not re-run the stages")

	got, err := documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StateIndexed, got.State)
	assert.Nil(t, got.Failure)
}

func TestAttributePage(t *testing.T) {
	tests := []struct {
		name       string
		offset     int
		totalRunes int
		pageCount  int
		want       int
	}{
		{"start of document", 0, 1000, 4, 1},
		{"middle", 500, 1000, 4, 3},
		{"last rune stays on last page", 999, 1000, 4, 4},
		{"single page", 500, 1000, 1, 1},
		{"no pages reported", 500, 1000, 0, 0},
		{"empty text", 0, 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attributePage(tt.offset, tt.totalRunes, tt.pageCount))
		})
	}
}
