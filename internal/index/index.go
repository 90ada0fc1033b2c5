// Package index builds and serves an inverted token to URL mapping over a
// finished document collection.
package index

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Index maps lowercase alphabetic tokens to the URLs containing them.
// Postings keep first-seen insertion order and hold each URL at most once
// per token. Add is append-only; queries may run concurrently with it.
type Index struct {
	mu       sync.RWMutex
	postings map[string][]string
	members  map[string]map[string]struct{}
	docs     map[string]struct{}
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		postings: make(map[string][]string),
		members:  make(map[string]map[string]struct{}),
		docs:     make(map[string]struct{}),
	}
}

// Tokenize lowercases text and extracts maximal runs of ASCII letters.
// Digits, punctuation, and any other rune act as separators and are
// discarded. No stemming or stopword removal is applied.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	var tokens []string
	start := -1
	for i, r := range lowered {
		if r >= 'a' && r <= 'z' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, lowered[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, lowered[start:])
	}
	return tokens
}

// Add indexes the text of one document under its URL. Re-adding the same
// document is a no-op for every (token, url) pair already present.
func (ix *Index) Add(url, text string) {
	tokens := Tokenize(text)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs[url] = struct{}{}
	for _, token := range tokens {
		urls, ok := ix.members[token]
		if !ok {
			urls = make(map[string]struct{})
			ix.members[token] = urls
		}
		if _, seen := urls[url]; seen {
			continue
		}
		urls[url] = struct{}{}
		ix.postings[token] = append(ix.postings[token], url)
	}
}

// Lookup returns the URLs containing a single token in first-seen order.
// Matching is case-insensitive; an unknown token yields an empty result.
func (ix *Index) Lookup(token string) []string {
	key := strings.ToLower(token)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	urls := ix.postings[key]
	if len(urls) == 0 {
		return nil
	}
	out := make([]string, len(urls))
	copy(out, urls)
	return out
}

// Result is one scored document from a query.
type Result struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// SearchScored ranks documents for a whitespace-separated query. Every
// query term whose postings contain a document adds one point to it;
// results are ordered by descending score, with ties kept in the order
// documents first scored.
func (ix *Index) SearchScored(query string) []Result {
	terms := strings.Fields(strings.ToLower(query))

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[string]int)
	var order []string
	for _, term := range terms {
		for _, url := range ix.postings[term] {
			if _, scored := scores[url]; !scored {
				order = append(order, url)
			}
			scores[url]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	results := make([]Result, len(order))
	for i, url := range order {
		results[i] = Result{URL: url, Score: scores[url]}
	}
	return results
}

// Search ranks documents like SearchScored and returns only the URLs.
func (ix *Index) Search(query string) []string {
	ranked := ix.SearchScored(query)
	if len(ranked) == 0 {
		return nil
	}
	out := make([]string, len(ranked))
	for i, res := range ranked {
		out[i] = res.URL
	}
	return out
}

// Terms returns the number of distinct tokens in the index.
func (ix *Index) Terms() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}

// Docs returns the number of distinct documents added.
func (ix *Index) Docs() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

type snapshot struct {
	Terms map[string][]string `json:"terms"`
	Docs  []string            `json:"docs"`
}

// Save writes the index as JSON so a later search or serve command can load
// it without re-crawling.
func (ix *Index) Save(w io.Writer) error {
	ix.mu.RLock()
	snap := snapshot{
		Terms: make(map[string][]string, len(ix.postings)),
		Docs:  make([]string, 0, len(ix.docs)),
	}
	for token, urls := range ix.postings {
		copied := make([]string, len(urls))
		copy(copied, urls)
		snap.Terms[token] = copied
	}
	for url := range ix.docs {
		snap.Docs = append(snap.Docs, url)
	}
	ix.mu.RUnlock()

	sort.Strings(snap.Docs)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(r io.Reader) (*Index, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	ix := New()
	for token, urls := range snap.Terms {
		for _, url := range urls {
			members, ok := ix.members[token]
			if !ok {
				members = make(map[string]struct{})
				ix.members[token] = members
			}
			if _, seen := members[url]; seen {
				continue
			}
			members[url] = struct{}{}
			ix.postings[token] = append(ix.postings[token], url)
		}
	}
	for _, url := range snap.Docs {
		ix.docs[url] = struct{}{}
	}
	return ix, nil
}
