package search

import "github.com/poiesic/sitedex/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during retrieval.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	Finish(matches []*core.ChunkMatch)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32) {}
func (n *noopMonitor) Finish(_ []*core.ChunkMatch)     {}
