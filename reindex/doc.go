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


// Package reindex re-embeds every stored chunk in place.
//
// Switching embedding models invalidates all stored vectors: similarity
// between vectors from different models is meaningless. The Reindexer
// walks every document's chunks in batches, re-embeds the chunk texts
// with the new model, normalizes, and updates the vectors in place. The
// new model's dimension becomes authoritative.
//
// Reindexing is an offline operator action; run it while the worker
// pool is stopped so no pipeline writes race the vector updates.
package reindex
