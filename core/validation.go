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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - OwnerId and FileName must not be empty
//   - State must be a known state
//   - Progress must be within [0, 100]
//
// NOT validated (populated by workers):
//   - Extracted and derived attributes (empty until the pipeline runs)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.OwnerId == "" {
		return fmt.Errorf("%w: owner id is empty", ErrInvalidDocument)
	}
	if doc.FileName == "" {
		return fmt.Errorf("%w: file name is empty", ErrInvalidDocument)
	}
	if !doc.State.Valid() {
		return fmt.Errorf("%w: unknown state %d", ErrInvalidDocument, int(doc.State))
	}
	if doc.Progress < 0 || doc.Progress > 100 {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidDocument, doc.Progress)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must be set
//   - Index must be non-negative
//   - Text must not be empty
//   - Span must be well formed (Start <= End)
//
// Vector length is NOT validated here; the expected dimension is pipeline
// configuration, checked at the embedding boundary before storage.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id is zero", ErrInvalidChunk)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if chunk.Start > chunk.End {
		return fmt.Errorf("%w: span [%d, %d) inverted", ErrInvalidChunk, chunk.Start, chunk.End)
	}
	return nil
}

// ValidateJob validates a Job according to domain rules.
//
// Validation rules:
//   - Id must equal JobIDForDocument(DocumentId)
//   - DocumentId and Location must be set
//   - Attempts must be non-negative
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}
	if job.DocumentId == 0 {
		return fmt.Errorf("%w: document id is zero", ErrInvalidJob)
	}
	if job.Id != JobIDForDocument(job.DocumentId) {
		return fmt.Errorf("%w: id %d is not derived from document %d", ErrInvalidJob, job.Id, job.DocumentId)
	}
	if job.Location == "" {
		return fmt.Errorf("%w: file location is empty", ErrInvalidJob)
	}
	if job.Attempts < 0 {
		return fmt.Errorf("%w: negative attempt count", ErrInvalidJob)
	}
	return nil
}
