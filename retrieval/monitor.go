package retrieval

import "github.com/lectern-app/lectern/core"

// RetrievalMonitor provides hooks to observe the context assembly process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterSimilaritySearch(matches []*core.ScoredChunk)
	ChunkIncluded(chunk *core.Chunk, score float32, tokens int)
	BudgetStop(chunk *core.Chunk, wouldUse, budget int)
	Finish(result *core.RetrievalContext)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)            {}
func (n *noopMonitor) AfterSimilaritySearch(_ []*core.ScoredChunk) {}
func (n *noopMonitor) ChunkIncluded(_ *core.Chunk, _ float32, _ int) {
}
func (n *noopMonitor) BudgetStop(_ *core.Chunk, _, _ int)  {}
func (n *noopMonitor) Finish(_ *core.RetrievalContext)     {}
