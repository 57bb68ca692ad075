package ingest

import "errors"

var (
	// ErrQueueRequired indicates a nil job queue was passed.
	ErrQueueRequired = errors.New("job queue required")

	// ErrDocumentsRequired indicates a nil document repository was passed.
	ErrDocumentsRequired = errors.New("document repository required")

	// ErrChunksRequired indicates a nil chunk repository was passed.
	ErrChunksRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired indicates a nil embedder was passed.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrExtractorRequired indicates a nil extractor was passed.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// errDocumentGone marks a claimed job whose document was deleted
	// before or during processing. The job is acked as a no-op.
	errDocumentGone = errors.New("document deleted, dropping job")

	// errJobStale marks a claimed job whose document is already indexed.
	// The job is acked as a no-op rather than burning retry attempts.
	errJobStale = errors.New("document already indexed, dropping job")
)
