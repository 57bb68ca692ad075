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


package lectern

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/ai/openai"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/extract"
	"github.com/lectern-app/lectern/ingest"
	"github.com/lectern-app/lectern/reindex"
	"github.com/lectern-app/lectern/retrieval"
	"github.com/lectern-app/lectern/storage"
	"github.com/lectern-app/lectern/storage/badger"
)

// ErrAlreadyIndexed indicates a reprocess request for a document that is
// already indexed. An indexed document is terminal; delete and re-upload
// to ingest a new revision of the file.
var ErrAlreadyIndexed = errors.New("document already indexed")

// Library is the top-level handle over the document store, the job
// queue, and the embedding provider. The web layer holds exactly one
// Library per process and builds workers, retrievers, and reindexers
// from it.
type Library struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	queue     storage.JobQueue
	embedder  ai.Embedder
	extractor extract.Extractor
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig    *ai.Config
	queueConfig badger.QueueConfig
	embedder    ai.Embedder
	extractor   extract.Extractor
	inMemory    bool
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithQueueConfig sets the job queue retry/backoff policy.
// Default is badger.DefaultQueueConfig().
func WithQueueConfig(cfg badger.QueueConfig) LibraryOption {
	return func(o *libraryOptions) {
		o.queueConfig = cfg
	}
}

// WithEmbedder injects an embedder, bypassing provider construction.
// Intended for tests and offline development with ai/mock.
func WithEmbedder(embedder ai.Embedder) LibraryOption {
	return func(o *libraryOptions) {
		o.embedder = embedder
	}
}

// WithExtractor injects a text extractor.
// Default is the docconv extractor with OCR fallback.
func WithExtractor(extractor extract.Extractor) LibraryOption {
	return func(o *libraryOptions) {
		o.extractor = extractor
	}
}

// WithInMemory opens the store in memory, ignoring the file path.
// Intended for tests.
func WithInMemory() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// Open opens (or creates) a library at the given path.
func Open(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig:    ai.DefaultConfig(),
		queueConfig: badger.DefaultQueueConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	queue, err := badger.NewJobQueue(backend, options.queueConfig)
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			queue.Close()
			chunks.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	extractor := options.extractor
	if extractor == nil {
		extractor = extract.NewExtractor()
	}

	return &Library{
		backend:   backend,
		documents: documents,
		chunks:    chunks,
		queue:     queue,
		embedder:  embedder,
		extractor: extractor,
		logger:    slog.Default().With("component", "library"),
	}, nil
}

// Close releases the stores and the backend.
func (l *Library) Close() error {
	if err := l.queue.Close(); err != nil {
		l.logger.Error("error closing job queue", "err", err)
		return err
	}
	if err := l.chunks.Close(); err != nil {
		l.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := l.documents.Close(); err != nil {
		l.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Upload describes an accepted file handed over by the web layer.
type Upload struct {
	OwnerId  string
	FileName string
	ByteSize int64
	MimeType string
	Location string
	Priority core.Priority
}

// AcceptUpload records the uploaded document and enqueues its ingestion
// job. Accepting the same document again while its job is queued or in
// flight is a no-op on the queue side (idempotent enqueue); accepting it
// again after a dead-lettered failure revives the job with a fresh
// attempt budget.
func (l *Library) AcceptUpload(ctx context.Context, upload Upload) (*core.Document, error) {
	if upload.Priority == 0 {
		upload.Priority = core.PriorityNormal
	}

	doc := &core.Document{
		OwnerId:  upload.OwnerId,
		FileName: upload.FileName,
		ByteSize: upload.ByteSize,
		MimeType: upload.MimeType,
		Location: upload.Location,
		State:    core.StateQueued,
	}
	doc, err := l.documents.AddDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("recording document: %w", err)
	}

	accepted, err := l.queue.Enqueue(ctx, &core.Job{
		Id:         core.JobIDForDocument(doc.Id),
		DocumentId: doc.Id,
		OwnerId:    upload.OwnerId,
		Location:   upload.Location,
		Priority:   upload.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueuing ingestion job: %w", err)
	}

	l.logger.Info("upload accepted",
		"document_id", uint64(doc.Id),
		"file", upload.FileName,
		"enqueued", accepted)
	return doc, nil
}

// Reprocess re-enqueues an existing document, typically after a
// dead-lettered failure was fixed. The document re-enters QUEUED on the
// next claim. An indexed document is rejected with ErrAlreadyIndexed:
// its state is terminal and a job for it could never start.
func (l *Library) Reprocess(ctx context.Context, documentID core.ID, priority core.Priority) (bool, error) {
	doc, err := l.documents.GetDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	if doc.State == core.StateIndexed {
		return false, ErrAlreadyIndexed
	}
	if priority == 0 {
		priority = core.PriorityNormal
	}

	return l.queue.Enqueue(ctx, &core.Job{
		Id:         core.JobIDForDocument(doc.Id),
		DocumentId: doc.Id,
		OwnerId:    doc.OwnerId,
		Location:   doc.Location,
		Priority:   priority,
	})
}

// Status returns the processing view of a document for status polling.
func (l *Library) Status(ctx context.Context, documentID core.ID) (*core.DocumentStatus, error) {
	doc, err := l.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &core.DocumentStatus{
		State:    doc.State,
		Progress: doc.Progress,
		Failure:  doc.Failure,
	}, nil
}

// Document returns the full document record.
func (l *Library) Document(ctx context.Context, documentID core.ID) (*core.Document, error) {
	return l.documents.GetDocument(ctx, documentID)
}

// DeleteDocument removes a document and cascades to its chunks. An
// in-flight job for the document is not interrupted; it drops itself
// when it next touches the deleted record.
func (l *Library) DeleteDocument(ctx context.Context, documentID core.ID) error {
	if err := l.chunks.DeleteDocumentChunks(ctx, documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if err := l.documents.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	l.logger.Info("document deleted", "document_id", uint64(documentID))
	return nil
}

// DeadLetters lists jobs that exhausted their retries.
func (l *Library) DeadLetters(ctx context.Context) ([]*core.Job, error) {
	return l.queue.DeadLetters(ctx)
}

// NewWorkerPool builds an ingestion worker pool over this library's
// stores and provider.
func (l *Library) NewWorkerPool(opts ...ingest.Option) (*ingest.Pool, error) {
	cfg := ingest.NewConfig(opts...)

	pipeline, err := ingest.NewPipeline(l.documents, l.chunks, l.extractor, l.embedder, cfg)
	if err != nil {
		return nil, err
	}
	return ingest.NewPool(l.queue, pipeline, cfg)
}

// NewRetriever builds a context retriever over this library's index.
func (l *Library) NewRetriever(opts ...retrieval.Option) (*retrieval.Retriever, error) {
	return retrieval.NewRetriever(l.chunks, l.embedder, opts...)
}

// NewReindexer builds a reindexer that re-embeds every stored chunk.
// Run it while no worker pool is running.
func (l *Library) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(l.documents, l.chunks, l.embedder, config, progress)
}

// DocumentRepository exposes the underlying document store.
func (l *Library) DocumentRepository() storage.DocumentRepository {
	return l.documents
}

// ChunkRepository exposes the underlying chunk store.
func (l *Library) ChunkRepository() storage.ChunkRepository {
	return l.chunks
}

// JobQueue exposes the underlying job queue.
func (l *Library) JobQueue() storage.JobQueue {
	return l.queue
}

// WaitForDocument polls until the document reaches a terminal state or
// the context expires. Convenience for CLI use; the web layer polls
// Status instead.
func (l *Library) WaitForDocument(ctx context.Context, documentID core.ID, poll time.Duration) (*core.DocumentStatus, error) {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		status, err := l.Status(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if status.State == core.StateIndexed {
			return status, nil
		}
		if status.State == core.StateFailed {
			// FAILED is terminal only once the job stopped retrying
			job, jobErr := l.queue.Job(ctx, core.JobIDForDocument(documentID))
			if jobErr != nil || job == nil || job.State == core.JobDead {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}
