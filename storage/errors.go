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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a duplicate key violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrLeaseLost indicates a worker tried to act on a job whose lease
	// it no longer holds (expired and reclaimed by another worker).
	ErrLeaseLost = errors.New("job lease lost")

	// ErrNotInFlight indicates an ack or fail for a job that is not
	// currently claimed.
	ErrNotInFlight = errors.New("job not in flight")

	// ErrChunkOrder indicates chunks submitted out of index order or with
	// gaps; chunk indices must be contiguous starting at 0.
	ErrChunkOrder = errors.New("chunk indices not contiguous from 0")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
