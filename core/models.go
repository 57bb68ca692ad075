package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// JobIDForDocument derives the deterministic job ID for a document.
// Every ingestion job for the same document maps to the same ID, which is
// what lets the queue deduplicate concurrent processing attempts. The
// mapping is part of the queue contract, not a convention: callers must
// never invent job IDs by other means.
func JobIDForDocument(documentID ID) ID {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(documentID))
	return IDFromContent("job:" + string(buf[:]))
}

// Priority orders jobs in the queue. Higher values are claimed first;
// within a priority level jobs are claimed in enqueue (FIFO) order.
type Priority uint8

const (
	// PriorityLow is used for background backfills.
	PriorityLow Priority = 1
	// PriorityNormal is the default for user uploads.
	PriorityNormal Priority = 5
	// PriorityHigh is used for interactive re-processing requests.
	PriorityHigh Priority = 9
)

// Document represents one uploaded source file and its processing record.
// It is mutated exclusively by the worker currently holding the document's
// job; everyone else only reads it.
type Document struct {
	Id       ID
	OwnerId  string // opaque identity from the (external) auth layer
	FileName string
	ByteSize int64
	MimeType string
	Location string // where the source file lives (path or object key)

	State    DocumentState
	Progress int              // 0-100, monotonically non-decreasing within an attempt
	Failure  *ProcessingError // set when State == StateFailed

	// Extracted attributes, populated by the extraction stage.
	PageCount int
	WordCount int
	Language  string
	Excerpt   string

	// Derived attributes, populated at the end of a successful run.
	ChunkCount int
	Difficulty string
	Subjects   []string
	Summary    string

	CreatedAt   time.Time
	StartedAt   time.Time // processing start; set once, kept across retries
	CompletedAt time.Time
	UpdatedAt   time.Time
}

// Chunk is an immutable unit of indexed text. Chunks are written in a
// batch at the end of the embedding stage and never mutated afterwards,
// only deleted together with their document or replaced by a retry.
type Chunk struct {
	Id         ID
	DocumentId ID
	Index      int // 0-based, contiguous per document
	Text       string
	Vector     []float32
	Start      int // rune offset of the chunk in the source text
	End        int // rune offset one past the last rune
	Page       int // best-effort page attribution, 1-based, 0 when unknown
	CreatedAt  time.Time
}

// JobState tracks where a job is in its queue lifecycle.
type JobState int

const (
	// JobPending means the job is waiting to be claimed.
	JobPending JobState = iota + 1
	// JobInFlight means a worker holds the job under a lease.
	JobInFlight
	// JobDead means the job exhausted its attempts or hit a
	// non-retryable error and requires no further automatic action.
	JobDead
)

// Job is a request to run the ingestion pipeline for one document.
// Its Id is always JobIDForDocument(DocumentId).
type Job struct {
	Id         ID
	DocumentId ID
	OwnerId    string
	Location   string
	Priority   Priority
	State      JobState

	Attempts  int
	Seq       uint64    // enqueue sequence, preserves FIFO order within a priority
	NotBefore time.Time // backoff gate; zero means immediately eligible

	LeaseExpiry time.Time // only meaningful while in flight
	WorkerId    string    // worker currently holding the lease

	LastError  string
	EnqueuedAt time.Time
}

// ScoredChunk pairs a chunk with its similarity score for a query.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// Citation maps a span of assembled context back to its source so the
// chat layer can attribute claims.
type Citation struct {
	DocumentId ID
	ChunkId    ID
	Page       int
	Excerpt    string
}

// RetrievalContext is the ephemeral result of context assembly. It is
// never persisted.
type RetrievalContext struct {
	Matches    []ScoredChunk
	Text       string
	Citations  []Citation
	TokensUsed int
}

// Empty reports whether no chunk cleared the similarity threshold.
// Callers must treat an empty context distinctly from a retrieval error.
func (rc *RetrievalContext) Empty() bool {
	return rc == nil || len(rc.Matches) == 0
}

// DocumentStatus is the read-only view served to status polling.
type DocumentStatus struct {
	State    DocumentState
	Progress int
	Failure  *ProcessingError
}
