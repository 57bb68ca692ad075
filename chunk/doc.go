// Package chunk splits normalized document text into overlapping,
// retrieval-sized fragments.
//
// The splitter prefers the largest semantic boundary available: it first
// tries paragraph breaks, then line breaks, sentence terminators and
// whitespace, and only cuts mid-word when a single run of characters
// exceeds the target size. Consecutive fragments share a configurable
// amount of leading context so meaning is preserved across fragment
// boundaries during retrieval.
//
// Split is a pure function: identical input text and parameters always
// produce the identical fragment sequence, which is what makes retries
// of the ingestion pipeline deterministic.
package chunk
