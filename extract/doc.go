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


// Package extract turns uploaded source files into plain text.
//
// The primary path is structural extraction via docconv, which handles
// PDF, DOCX, HTML and friends. When a paged document yields less text
// than a configurable minimum, the extractor assumes a scanned document
// and falls back to optical character recognition over the rendered
// pages (pdftoppm + tesseract via gosseract).
//
// Extraction failures are fatal for the ingestion attempt. Language
// detection is best-effort and never fails; ambiguous input gets the
// configured fallback language.
package extract
