// Copyright 2026 Lectern Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/chunk"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/extract"
	"github.com/lectern-app/lectern/storage"
)

// Stage progress checkpoints. Progress only moves forward within a run.
const (
	progressClaimed    = 5
	progressExtracted  = 40
	progressChunked    = 60
	progressVectorized = 90
	progressIndexed    = 100
)

// Pipeline executes the full ingestion of one claimed job: extract,
// chunk, embed, persist, enrich. The pipeline mutates the document as
// the single writer; it never touches the queue — the pool owns
// ack/fail.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	extractor extract.Extractor
	embedder  *batchEmbedder
	cfg       Config
	logger    *slog.Logger
}

// NewPipeline creates a pipeline over the given stores and services.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	extractor extract.Extractor,
	embedder ai.Embedder,
	cfg Config,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentsRequired
	}
	if chunks == nil {
		return nil, ErrChunksRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "pipeline")

	return &Pipeline{
		documents: documents,
		chunks:    chunks,
		extractor: extractor,
		embedder:  newBatchEmbedder(embedder, cfg.EmbedBatchSize, cfg.EmbedDimension, logger),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Process runs every stage for one claimed job. On error the document
// is marked FAILED with a structured message and the error is returned
// for the pool to hand to the queue. A job whose document was deleted
// returns errDocumentGone, a job whose document is already indexed
// returns errJobStale; the pool treats both as a silent ack.
func (p *Pipeline) Process(ctx context.Context, job *core.Job) error {
	logger := p.logger.With("job_id", uint64(job.Id), "document_id", uint64(job.DocumentId))

	doc, err := p.documents.GetDocument(ctx, job.DocumentId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Info("document deleted before processing, dropping job")
			return errDocumentGone
		}
		return core.TransientErr("loading document: %v", err)
	}
	if doc.State == core.StateIndexed {
		logger.Info("document already indexed, dropping stale job")
		return errJobStale
	}

	if err := p.start(ctx, doc); err != nil {
		return p.fail(ctx, doc, job, err)
	}
	logger.Info("processing started", "attempt", job.Attempts+1, "file", doc.FileName)

	res, err := p.extractor.Extract(ctx, job.Location, doc.MimeType)
	if err != nil {
		return p.fail(ctx, doc, job, err)
	}
	doc.PageCount = res.PageCount
	doc.WordCount = res.WordCount
	doc.Language = res.Language
	doc.Excerpt = res.Excerpt
	if err := p.advance(ctx, doc, core.StateExtracting, progressExtracted); err != nil {
		return p.fail(ctx, doc, job, err)
	}

	fragments, err := chunk.Split(res.Text, p.cfg.Chunk)
	if err != nil {
		return p.fail(ctx, doc, job, core.ConfigErr("chunking: %v", err))
	}
	if err := p.advance(ctx, doc, core.StateVectorizing, progressChunked); err != nil {
		return p.fail(ctx, doc, job, err)
	}

	chunks, err := p.vectorize(ctx, doc, fragments, res)
	if err != nil {
		return p.fail(ctx, doc, job, err)
	}

	// Replace, never append: a retry discards any partial prior attempt
	stored, err := p.chunks.ReplaceDocumentChunks(ctx, doc.Id, chunks)
	if err != nil {
		return p.fail(ctx, doc, job, core.TransientErr("persisting chunks: %v", err))
	}
	doc.Progress = progressVectorized

	enrich(doc, res.Text, p.cfg.Enrich)
	doc.ChunkCount = len(stored)
	doc.CompletedAt = time.Now().UTC()
	if err := p.advance(ctx, doc, core.StateIndexed, progressIndexed); err != nil {
		return p.fail(ctx, doc, job, err)
	}

	logger.Info("document indexed",
		"chunks", len(stored),
		"pages", doc.PageCount,
		"words", doc.WordCount,
		"language", doc.Language)
	return nil
}

// start moves the document into a fresh PROCESSING run. A retried
// document re-enters via QUEUED first; a document stranded mid-run by
// an expired lease re-enters PROCESSING directly. The start timestamp
// is set only once, on the first attempt.
func (p *Pipeline) start(ctx context.Context, doc *core.Document) error {
	if doc.State == core.StateFailed {
		if err := doc.Transition(core.StateQueued, 0); err != nil {
			return core.TransientErr("%v", err)
		}
	}
	doc.Failure = nil
	if err := doc.Transition(core.StateProcessing, progressClaimed); err != nil {
		return core.TransientErr("%v", err)
	}
	if doc.StartedAt.IsZero() {
		doc.StartedAt = time.Now().UTC()
	}
	if err := p.documents.UpdateDocument(ctx, doc); err != nil {
		return core.TransientErr("updating document: %v", err)
	}
	return nil
}

// advance moves the document one stage forward and persists it.
func (p *Pipeline) advance(ctx context.Context, doc *core.Document, next core.DocumentState, progress int) error {
	if err := doc.Transition(next, progress); err != nil {
		return core.TransientErr("%v", err)
	}
	if err := p.documents.UpdateDocument(ctx, doc); err != nil {
		return core.TransientErr("updating document: %v", err)
	}
	return nil
}

// vectorize embeds all fragments and builds the chunk records. Nothing
// is persisted here: a dimension error on any fragment aborts before a
// single chunk of this attempt is stored.
func (p *Pipeline) vectorize(ctx context.Context, doc *core.Document, fragments []chunk.Fragment, res *extract.Result) ([]*core.Chunk, error) {
	if len(fragments) == 0 {
		return nil, nil
	}

	texts := make([]string, len(fragments))
	for i, frag := range fragments {
		texts[i] = frag.Text
	}

	vectors, err := p.embedder.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	totalRunes := fragments[len(fragments)-1].End
	chunks := make([]*core.Chunk, len(fragments))
	for i, frag := range fragments {
		chunks[i] = &core.Chunk{
			DocumentId: doc.Id,
			Index:      i,
			Text:       frag.Text,
			Vector:     core.NormalizeVector(vectors[i]),
			Start:      frag.Start,
			End:        frag.End,
			Page:       attributePage(frag.Start, totalRunes, res.PageCount),
		}
	}
	return chunks, nil
}

// fail records the failure on the document and passes the classified
// error back to the pool. A document that vanished mid-run is dropped.
func (p *Pipeline) fail(ctx context.Context, doc *core.Document, job *core.Job, cause error) error {
	procErr := core.AsProcessingError(cause)
	procErr.Attempt = job.Attempts + 1

	if err := doc.Transition(core.StateFailed, doc.Progress); err != nil {
		p.logger.Error("cannot mark document failed", "err", err, "document_id", uint64(doc.Id))
	}
	doc.Failure = procErr

	if err := p.documents.UpdateDocument(ctx, doc); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errDocumentGone
		}
		p.logger.Error("recording failure on document", "err", err, "document_id", uint64(doc.Id))
	}

	p.logger.Warn("processing failed",
		"document_id", uint64(doc.Id),
		"kind", procErr.Kind.String(),
		"attempt", procErr.Attempt,
		"error", procErr.Message)
	return procErr
}

// attributePage maps a rune offset to a 1-based page number
// proportionally. Best effort; 0 when the document reports no pages.
func attributePage(offset, totalRunes, pageCount int) int {
	if pageCount <= 0 || totalRunes <= 0 {
		return 0
	}
	page := offset*pageCount/totalRunes + 1
	if page > pageCount {
		page = pageCount
	}
	return page
}
