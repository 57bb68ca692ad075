// Package ingest runs the asynchronous document ingestion pipeline.
//
// A fixed-size pool of workers (Pool) claims jobs from the durable
// queue under visibility-timeout leases and executes the full pipeline
// (Pipeline) for each claimed job:
//
//	QUEUED -> PROCESSING -> EXTRACTING -> VECTORIZING -> INDEXED
//
// Any stage error marks the document FAILED with a structured,
// human-readable message and hands the job back to the queue, which
// owns the retry/backoff policy. Chunks of a failed attempt are never
// persisted: the pipeline embeds and validates every vector first, then
// replaces the document's chunk set atomically.
//
// The document is mutated only by the worker holding its job; status
// polling reads it concurrently without coordination.
package ingest
