package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
)

const (
	defaultK           = 8
	defaultThreshold   = 0.60
	defaultTokenBudget = 2000
	defaultDimension   = 768
	defaultEncoding    = "cl100k_base"

	// citationExcerptRunes bounds the excerpt carried on a citation.
	citationExcerptRunes = 120

	// chunkSeparator joins included chunk texts in the assembled context.
	chunkSeparator = "\n\n"
)

// Config holds the retrieval parameters. All values have documented
// defaults; zero values are filled in by Normalize.
type Config struct {
	// K is how many chunks the similarity search returns before
	// thresholding and budgeting. Default: 8
	K int

	// SimilarityThreshold is the minimum cosine similarity a chunk needs
	// to be considered relevant. Default: 0.60
	SimilarityThreshold float32

	// TokenBudget bounds the assembled context. Assembly stops before
	// the budget would be exceeded. Default: 2000
	TokenBudget int

	// Dimension is the embedding vector length ingestion was run with.
	// A query vector of any other length is a configuration error.
	// Default: 768
	Dimension int

	// Encoding names the tiktoken encoding used to measure the budget.
	// Default: cl100k_base
	Encoding string
}

// Option is a functional option for configuring retrieval.
type Option func(*Config)

// WithK sets how many chunks the similarity search returns.
func WithK(k int) Option {
	return func(c *Config) {
		c.K = k
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity.
func WithSimilarityThreshold(threshold float32) Option {
	return func(c *Config) {
		c.SimilarityThreshold = threshold
	}
}

// WithTokenBudget sets the assembled context budget.
func WithTokenBudget(budget int) Option {
	return func(c *Config) {
		c.TokenBudget = budget
	}
}

// WithDimension sets the expected query embedding length.
func WithDimension(dim int) Option {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithEncoding sets the tiktoken encoding used for the budget.
func WithEncoding(encoding string) Option {
	return func(c *Config) {
		c.Encoding = encoding
	}
}

// DefaultConfig returns the retrieval defaults.
func DefaultConfig() Config {
	return Config{
		K:                   defaultK,
		SimilarityThreshold: defaultThreshold,
		TokenBudget:         defaultTokenBudget,
		Dimension:           defaultDimension,
		Encoding:            defaultEncoding,
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.K <= 0 {
		c.K = def.K
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = def.TokenBudget
	}
	if c.Dimension <= 0 {
		c.Dimension = def.Dimension
	}
	if c.Encoding == "" {
		c.Encoding = def.Encoding
	}
}

// Retriever serves similarity-ranked, token-budgeted context with
// citations over the indexed chunks.
type Retriever struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	cfg      Config
	counter  TokenCounter
	logger   *slog.Logger
}

// NewRetriever creates a retriever over the chunk repository and the
// embedding provider ingestion was run with.
func NewRetriever(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Normalize()

	logger := slog.Default().With("component", "retriever")

	return &Retriever{
		chunks:   chunks,
		embedder: embedder,
		cfg:      cfg,
		counter:  newTokenCounter(cfg.Encoding, logger),
		logger:   logger,
	}, nil
}

// SetTokenCounter replaces the budget counter. Intended for tests and
// for deployments that measure budget in plain characters.
func (r *Retriever) SetTokenCounter(counter TokenCounter) {
	if counter != nil {
		r.counter = counter
	}
}

// Retrieve assembles context for the query over the given document
// scope. An empty scope searches every indexed document.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope []core.ID) (*core.RetrievalContext, error) {
	return r.RetrieveWithMonitor(ctx, query, scope, nil)
}

// RetrieveWithMonitor assembles context with observation hooks. The
// monitor receives callbacks at each stage of the assembly process.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, scope []core.ID, monitor RetrievalMonitor) (*core.RetrievalContext, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("embedding query", "err", err)
		return nil, core.TransientErr("embedding query: %v", err)
	}
	if len(vector) != r.cfg.Dimension {
		return nil, core.ConfigErr("query embedding dimension mismatch: got %d, want %d",
			len(vector), r.cfg.Dimension)
	}
	vector = core.NormalizeVector(vector)
	monitor.AfterQueryEmbedding(vector)

	matches, err := r.chunks.SearchSimilar(ctx, scope, vector, r.cfg.K)
	if err != nil {
		r.logger.Error("similarity search", "err", err)
		return nil, core.TransientErr("similarity search: %v", err)
	}
	monitor.AfterSimilaritySearch(matches)

	relevant := make([]core.ScoredChunk, 0, len(matches))
	for _, match := range matches {
		if match.Score >= r.cfg.SimilarityThreshold {
			relevant = append(relevant, *match)
		}
	}

	result := r.assemble(relevant, monitor)
	monitor.Finish(result)

	if result.Empty() {
		r.logger.Info("no chunk cleared the similarity threshold",
			"query_len", len(query),
			"candidates", len(matches),
			"threshold", r.cfg.SimilarityThreshold)
	}
	return result, nil
}

// assemble appends chunk texts in rank order until the token budget
// would be exceeded. The budget is never exceeded: the first chunk that
// does not fit stops assembly.
func (r *Retriever) assemble(relevant []core.ScoredChunk, monitor RetrievalMonitor) *core.RetrievalContext {
	result := &core.RetrievalContext{Matches: relevant}

	var b strings.Builder
	for _, match := range relevant {
		text := match.Chunk.Text
		cost := r.counter.Count(text)
		if b.Len() > 0 {
			cost += r.counter.Count(chunkSeparator)
		}
		if result.TokensUsed+cost > r.cfg.TokenBudget {
			monitor.BudgetStop(match.Chunk, result.TokensUsed+cost, r.cfg.TokenBudget)
			break
		}

		if b.Len() > 0 {
			b.WriteString(chunkSeparator)
		}
		b.WriteString(text)
		result.TokensUsed += cost
		result.Citations = append(result.Citations, core.Citation{
			DocumentId: match.Chunk.DocumentId,
			ChunkId:    match.Chunk.Id,
			Page:       match.Chunk.Page,
			Excerpt:    excerpt(text),
		})
		monitor.ChunkIncluded(match.Chunk, match.Score, cost)
	}
	result.Text = b.String()
	return result
}

// excerpt shortens chunk text for a citation.
func excerpt(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= citationExcerptRunes {
		return string(runes)
	}
	return string(runes[:citationExcerptRunes]) + "…"
}
