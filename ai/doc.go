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


// Package ai provides abstractions for the embedding services used in lectern.
//
// This package defines the Embedder interface for text embedding. It
// follows the dependency inversion principle, allowing the ingestion
// pipeline and retrieval to depend on abstractions rather than concrete
// implementations.
//
// # Implementations
//
//   - ai/openai: OpenAI-compatible services via langchaingo (Ollama,
//     LocalAI, vLLM, OpenAI itself)
//   - ai/gemini: Google Gemini embedding models
//   - ai/mock: deterministic test double
//
// # Dimension
//
// Every provider is configured with an expected vector dimension. The
// providers do not enforce it themselves; the pipeline validates each
// returned vector and treats a mismatch as a fatal configuration error.
package ai
