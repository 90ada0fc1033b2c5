// Package memory contains an in-memory run notifier for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/leadspider/spider/internal/crawl"
)

// Notifier records published run summaries for inspection.
type Notifier struct {
	mu        sync.RWMutex
	summaries []crawl.Summary
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// PublishRunSummary records the summary and returns a pseudo ID.
func (n *Notifier) PublishRunSummary(_ context.Context, summary crawl.Summary) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return fmt.Sprintf("memory-%d", len(n.summaries)), nil
}

// Summaries returns the recorded publishes.
func (n *Notifier) Summaries() []crawl.Summary {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]crawl.Summary, len(n.summaries))
	copy(out, n.summaries)
	return out
}

// Close implements the notifier contract and never fails.
func (n *Notifier) Close() error {
	return nil
}
