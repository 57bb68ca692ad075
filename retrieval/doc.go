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


// Package retrieval assembles token-bounded context for the chat layer.
//
// The Retriever type implements query-time context assembly:
//   - Embed the query with the same provider and dimension as ingestion
//   - Rank indexed chunks by cosine similarity within a document scope
//   - Drop matches below the similarity threshold
//   - Greedily append chunk texts in rank order until the token budget
//     would be exceeded
//
// The result carries citations mapping every included span back to its
// document, chunk and page. A query where no chunk clears the threshold
// yields an explicitly empty context, which callers must treat as a
// distinct outcome rather than an error.
package retrieval
