package storage

import (
	"context"
	"time"

	"github.com/lectern-app/lectern/core"
)

// DocumentRepository provides operations for managing documents.
// Implementations must be thread-safe and support concurrent access,
// but document mutation is single-writer by convention: only the worker
// holding the document's job calls UpdateDocument.
type DocumentRepository interface {
	// AddDocument adds a document to storage. For documents with ID=0,
	// generates a new ID from sequence and sets CreatedAt if unset.
	// Returns the document with ID and timestamps populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument replaces the stored document.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocumentsByOwner retrieves all documents belonging to an owner,
	// most recently created first.
	ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*core.Document, error)

	// ListDocuments retrieves every stored document. Used by maintenance
	// operations such as reindexing.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document by ID.
	// Chunk cascade is the caller's responsibility (see ChunkRepository).
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// Close closes the repository.
	Close() error
}

// ChunkRepository stores the ordered, embedded chunks of each document
// and answers similarity queries over them. It is one of the two
// concurrently-shared mutable stores (the other is the JobQueue); all
// writes are transactional.
type ChunkRepository interface {
	// ReplaceDocumentChunks atomically replaces every chunk of a document
	// with the given set. A retry that re-runs chunking therefore never
	// appends to a partial prior attempt. Chunks must arrive in index
	// order, contiguous from 0; IDs are assigned from sequence.
	// Returns the chunks with IDs and timestamps populated.
	ReplaceDocumentChunks(ctx context.Context, documentID core.ID, chunks []*core.Chunk) ([]*core.Chunk, error)

	// GetDocumentChunks retrieves all chunks of a document in index order.
	GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// DeleteDocumentChunks removes every chunk of a document. Deleting
	// for a document that has no chunks is not an error.
	DeleteDocumentChunks(ctx context.Context, documentID core.ID) error

	// UpdateChunkVectors overwrites the embedding vectors of existing
	// chunks in place. Used by reindexing; regular ingestion always goes
	// through ReplaceDocumentChunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error

	// SearchSimilar returns up to k chunks from the scoped documents,
	// ranked by cosine similarity to the query vector, descending, with
	// ties broken by ascending chunk index for determinism. An empty
	// scope searches every document.
	SearchSimilar(ctx context.Context, scope []core.ID, vector []float32, k int) ([]*core.ScoredChunk, error)

	// Close closes the repository.
	Close() error
}

// JobQueue is the durable, at-least-once, priority-ordered store of
// ingestion jobs. Claim hands out visibility-timeout leases; an expired
// lease makes the job claimable again, which is how crashed workers are
// recovered.
type JobQueue interface {
	// Enqueue adds a job. Enqueue is idempotent on the job's
	// deterministic ID: re-enqueuing a document that already has a
	// pending or in-flight job is a no-op and returns false. A
	// dead-lettered job is revived by a fresh enqueue (explicit retry).
	Enqueue(ctx context.Context, job *core.Job) (bool, error)

	// Claim atomically removes one eligible job (NotBefore <= now),
	// respecting priority (highest first), then earliest ready time,
	// then enqueue order, and grants the worker a lease of the given
	// duration. A backed-off retry therefore re-enters behind
	// same-priority jobs that became ready before it.
	// Returns nil, nil when no job is eligible.
	Claim(ctx context.Context, workerID string, lease time.Duration) (*core.Job, error)

	// ExtendLease renews the lease on an in-flight job.
	// Returns ErrLeaseLost if the worker no longer holds the job.
	ExtendLease(ctx context.Context, jobID core.ID, workerID string, lease time.Duration) error

	// Ack removes a completed job permanently.
	Ack(ctx context.Context, jobID core.ID) error

	// Fail records a failed attempt. Retryable causes re-schedule the job
	// with exponential backoff; non-retryable causes and exhausted
	// attempt budgets move the job to the dead-letter state.
	// Returns true when another attempt was scheduled.
	Fail(ctx context.Context, jobID core.ID, cause error) (bool, error)

	// Job retrieves a job by ID regardless of its state.
	// Returns ErrNotFound if the job doesn't exist.
	Job(ctx context.Context, id core.ID) (*core.Job, error)

	// DeadLetters lists jobs that exhausted their retries. Terminal
	// failures are surfaced here, never silently dropped.
	DeadLetters(ctx context.Context) ([]*core.Job, error)

	// Close closes the queue.
	Close() error
}
