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


// Package storage provides the storage abstraction layer for lectern.
//
// This package defines repository interfaces that decouple storage
// implementation from the pipeline logic. It allows different backends
// (BadgerDB, in-memory, a SQL store) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	queue, err := badger.NewJobQueue(backend, cfg) // returns storage.JobQueue
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: the authoritative document processing record
//   - ChunkRepository: ordered chunk storage and vector similarity search
//   - JobQueue: durable at-least-once job store with leases and backoff
//
// The JobQueue and ChunkRepository are the only concurrently-shared
// mutable stores in the system; both rely on transactional writes for
// safe concurrent access.
package storage
