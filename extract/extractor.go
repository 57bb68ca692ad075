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


package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"code.sajari.com/docconv"
	"github.com/abadojack/whatlanggo"

	"github.com/lectern-app/lectern/core"
)

const (
	defaultMinTextLength    = 100
	defaultFallbackLanguage = "eng"
	excerptRunes            = 280
)

// Result is the output of one extraction.
type Result struct {
	Text      string
	PageCount int
	WordCount int
	Language  string // ISO 639-3 code, best effort
	Excerpt   string
	UsedOCR   bool
}

// Extractor produces plain text from a stored source file.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract reads the file at location and returns its text and
	// derived attributes. A failure is fatal for the ingestion attempt.
	Extract(ctx context.Context, location, mimeType string) (*Result, error)
}

// Config holds extraction tuning parameters.
type Config struct {
	// MinTextLength is the OCR fallback threshold: a paged document
	// whose structural extraction yields fewer characters than this is
	// treated as scanned and re-read via OCR. Default: 100
	MinTextLength int

	// FallbackLanguage is the language code reported when detection is
	// unreliable. Default: "eng"
	FallbackLanguage string
}

// Option is a functional option for configuring an extractor.
type Option func(*Config)

// WithMinTextLength sets the OCR fallback threshold in characters.
func WithMinTextLength(n int) Option {
	return func(c *Config) {
		c.MinTextLength = n
	}
}

// WithFallbackLanguage sets the language code used on ambiguous input.
func WithFallbackLanguage(lang string) Option {
	return func(c *Config) {
		c.FallbackLanguage = lang
	}
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		MinTextLength:    defaultMinTextLength,
		FallbackLanguage: defaultFallbackLanguage,
	}
}

// convertFunc matches docconv.Convert; injectable for tests.
type convertFunc func(r io.Reader, mimeType string, readability bool) (*docconv.Response, error)

// ocrFunc renders a paged document and runs character recognition over
// the pages; injectable for tests.
type ocrFunc func(ctx context.Context, location string, pageCount int) (string, error)

// DocconvExtractor implements Extractor with docconv as the primary
// path and page-rendering OCR as the fallback for scanned documents.
type DocconvExtractor struct {
	cfg     Config
	convert convertFunc
	ocr     ocrFunc
	logger  *slog.Logger
}

var _ Extractor = (*DocconvExtractor)(nil)

// NewExtractor creates an extractor with the given options.
//
// Returns the Extractor interface to enforce abstraction.
func NewExtractor(opts ...Option) Extractor {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &DocconvExtractor{
		cfg:     cfg,
		convert: docconv.Convert,
		ocr:     ocrPages,
		logger:  slog.Default().With("component", "extractor"),
	}
}

// Extract reads the file at location and produces text plus derived
// attributes (page count, word count, language, excerpt).
func (e *DocconvExtractor) Extract(ctx context.Context, location, mimeType string) (*Result, error) {
	file, err := os.Open(location)
	if err != nil {
		return nil, core.InputErr("cannot open source file %s: %v", location, err)
	}
	defer file.Close()

	res, err := e.convert(file, mimeType, false)
	if err != nil {
		return nil, core.InputErr("text extraction failed for %s: %v", mimeType, err)
	}

	text := strings.TrimSpace(res.Body)
	pageCount := pageCountFromMeta(res.Meta)

	usedOCR := false
	if len([]rune(text)) < e.cfg.MinTextLength && pageCount >= 1 {
		e.logger.Info("structural extraction too short, falling back to OCR",
			"location", location,
			"chars", len(text),
			"pages", pageCount)

		ocrText, err := e.ocr(ctx, location, pageCount)
		if err != nil {
			return nil, core.InputErr("ocr fallback failed: %v", err)
		}
		text = strings.TrimSpace(ocrText)
		usedOCR = true
	}

	if text == "" {
		return nil, core.InputErr("%v", ErrNoText)
	}

	result := &Result{
		Text:      text,
		PageCount: pageCount,
		WordCount: len(strings.Fields(text)),
		Language:  e.detectLanguage(text),
		Excerpt:   makeExcerpt(text),
		UsedOCR:   usedOCR,
	}

	e.logger.Debug("extracted document",
		"location", location,
		"chars", len(text),
		"pages", result.PageCount,
		"words", result.WordCount,
		"language", result.Language,
		"ocr", usedOCR)

	return result, nil
}

// detectLanguage returns the ISO 639-3 code of the dominant language.
// Detection never fails: unreliable results get the fallback language.
func (e *DocconvExtractor) detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return e.cfg.FallbackLanguage
	}
	return info.Lang.Iso6393()
}

// pageCountFromMeta pulls the page count out of docconv's metadata.
// Unpaged formats (plain text, HTML) report 0.
func pageCountFromMeta(meta map[string]string) int {
	for _, key := range []string{"PageCount", "Pages"} {
		if raw, ok := meta[key]; ok {
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// makeExcerpt keeps the leading runes of the text for display.
func makeExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return fmt.Sprintf("%s…", strings.TrimSpace(string(runes[:excerptRunes])))
}
