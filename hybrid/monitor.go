package hybrid

import "github.com/poiesic/fixit/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(ids []string)
	AfterKeywordSearch(ids []string)
	PathFailed(path Path, err error)
	Finish(results []core.HybridResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                    {}
func (n *noopMonitor) AfterVectorSearch(_ []string)      {}
func (n *noopMonitor) AfterKeywordSearch(_ []string)     {}
func (n *noopMonitor) PathFailed(_ Path, _ error)        {}
func (n *noopMonitor) Finish(_ []core.HybridResult)      {}
