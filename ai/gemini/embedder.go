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


// Package gemini implements ai.Embedder on Google's Gemini embedding
// models via the generative-ai-go client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lectern-app/lectern/ai"
)

const defaultModel = "gemini-embedding-001"

// Embedder implements ai.Embedder using the Gemini API.
type Embedder struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a Gemini-backed embedder. The API key falls back
// to the GEMINI_API_KEY environment variable when the config carries
// none.
//
// Returns ai.Embedder interface to enforce abstraction; Close the
// returned embedder to release the underlying client.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	modelName := config.Model
	if modelName == "" {
		modelName = defaultModel
	}

	return &Embedder{
		client:    client,
		modelName: modelName,
		logger:    slog.Default().With("component", "gemini-embedder"),
	}, nil
}

// Close releases the underlying API client.
func (e *Embedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	em := e.client.EmbeddingModel(e.modelName)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp.Embedding == nil {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return resp.Embedding.Values, nil
}

// EmbedTexts batches all texts in one request via BatchEmbedContents.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	em := e.client.EmbeddingModel(e.modelName)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		out = append(out, emb.Values)
	}
	return out, nil
}
