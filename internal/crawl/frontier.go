package crawl

import (
	"context"
	"sync"
)

type entry struct {
	url   string
	depth int
}

// Frontier is the sole authority over what is left to crawl and what has
// already been crawled. All operations are compound atomic steps under one
// mutex; callers never see the pending queue or visited set directly.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	pending  []entry
	visited  map[string]struct{}
	results  []Document
	limit    int
	maxDepth int

	inflight  int
	claimed   int64
	completed int64
	closed    bool
}

// NewFrontier creates a frontier capped at limit accepted pages. A limit of
// zero yields a run with no fetch attempts. Links discovered deeper than
// maxDepth hops from a seed are refused; maxDepth <= 0 disables the check.
func NewFrontier(limit, maxDepth int) *Frontier {
	f := &Frontier{
		visited:  make(map[string]struct{}),
		limit:    limit,
		maxDepth: maxDepth,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Seed enqueues the initial URLs at depth zero and returns how many were
// accepted. Empty strings and duplicates within the call are skipped.
func (f *Frontier) Seed(urls []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0
	}
	seen := make(map[string]struct{}, len(urls))
	accepted := 0
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		if _, done := f.visited[u]; done {
			continue
		}
		seen[u] = struct{}{}
		f.pending = append(f.pending, entry{url: u})
		accepted++
	}
	if accepted > 0 {
		f.cond.Broadcast()
	}
	return accepted
}

// Claim atomically pops the next unvisited pending URL and marks it visited
// in the same critical section. It blocks while the queue is empty but
// other workers still hold claims, since their results may enqueue more
// work. It returns ok=false once the run is over: the page cap is reached,
// the frontier is closed, ctx is done, or the queue drained with nothing in
// flight. Every ok=true claim must be paired with exactly one Release.
//
// Cancellation is observed at wakeups only; a caller that abandons ctx must
// also Close the frontier so blocked claimers wake up.
func (f *Frontier) Claim(ctx context.Context) (Lease, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if f.closed {
			return Lease{}, false
		}
		if ctx != nil && ctx.Err() != nil {
			return Lease{}, false
		}
		if len(f.results) >= f.limit {
			return Lease{}, false
		}
		if lease, ok := f.popLocked(); ok {
			f.inflight++
			f.claimed++
			return lease, true
		}
		if f.inflight == 0 {
			return Lease{}, false
		}
		f.cond.Wait()
	}
}

// popLocked pops entries until it finds one not yet visited, marking that
// one visited before returning it. Duplicate entries queued by concurrent
// discovery are consumed here, which keeps OfferLinks cheap.
func (f *Frontier) popLocked() (Lease, bool) {
	for len(f.pending) > 0 {
		next := f.pending[0]
		f.pending = f.pending[1:]
		if _, done := f.visited[next.url]; done {
			continue
		}
		f.visited[next.url] = struct{}{}
		return Lease{URL: next.url, Depth: next.depth}, true
	}
	return Lease{}, false
}

// RecordResult appends doc to the results if capacity remains. The capacity
// check and the append are one atomic step, so concurrent workers can never
// push the result count past the cap. A false return means the run is
// saturated and the caller must not offer the document's links.
func (f *Frontier) RecordResult(doc Document) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) >= f.limit {
		return false
	}
	f.results = append(f.results, doc)
	f.completed++
	f.cond.Broadcast()
	return true
}

// OfferLinks enqueues candidate URLs discovered at the given depth and
// returns how many were accepted. Visited URLs are skipped, the capacity
// check is re-run under the same lock as each enqueue, and links beyond the
// depth limit are refused. Modest over-enqueueing past the cap is tolerated
// because Claim refuses to dispense work once the run is saturated.
func (f *Frontier) OfferLinks(links []string, depth int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0
	}
	if f.maxDepth > 0 && depth > f.maxDepth {
		return 0
	}
	accepted := 0
	for _, link := range links {
		if link == "" {
			continue
		}
		if len(f.results) >= f.limit {
			break
		}
		if _, done := f.visited[link]; done {
			continue
		}
		f.pending = append(f.pending, entry{url: link, depth: depth})
		accepted++
	}
	if accepted > 0 {
		f.cond.Broadcast()
	}
	return accepted
}

// Release returns a claim obtained from Claim. The claimed URL stays
// visited whether or not a result was recorded; no URL ever transitions
// back to pending.
func (f *Frontier) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inflight > 0 {
		f.inflight--
	}
	f.cond.Broadcast()
}

// IsQuiescent reports whether the pending queue is empty and no worker
// holds a claimed-but-unrecorded URL. This predicate, not queue emptiness
// alone, is the run-termination condition.
func (f *Frontier) IsQuiescent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) == 0 && f.inflight == 0
}

// Results returns a copy of the accepted documents in record order.
func (f *Frontier) Results() []Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Document, len(f.results))
	copy(out, f.results)
	return out
}

// Stats returns a snapshot of the frontier counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Pending:   len(f.pending),
		Inflight:  f.inflight,
		Visited:   len(f.visited),
		Claimed:   f.claimed,
		Completed: f.completed,
	}
}

// Close wakes all blocked claimers and makes every subsequent Claim return
// ok=false. Results recorded by workers already in flight are still
// accepted, so a canceled run keeps its partial results. Close is
// idempotent.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cond.Broadcast()
}
