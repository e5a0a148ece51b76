package output

import (
	"sort"
	"sync"

	"github.com/quantmind-br/cargofmt/internal/domain"
)

// Collector accumulates per-manifest results from concurrent workers
type Collector struct {
	mu      sync.RWMutex
	results []domain.Result
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records one result
func (c *Collector) Add(r domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// Results returns a copy of the results sorted by path
func (c *Collector) Results() []domain.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := append([]domain.Result(nil), c.results...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Count returns the number of recorded results
func (c *Collector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Summary aggregates the recorded results
func (c *Collector) Summary() domain.Summary {
	return domain.Summarize(c.Results())
}
