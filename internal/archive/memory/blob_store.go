// Package memory stores archived pages in memory for development runs.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Archive keeps archived pages in a map and hands out memory:// URIs.
type Archive struct {
	mu    sync.RWMutex
	pages map[string][]byte
}

// New creates an empty in-memory archive.
func New() *Archive {
	return &Archive{pages: make(map[string][]byte)}
}

// Save copies body under key and returns a memory:// URI.
func (a *Archive) Save(_ context.Context, key string, body []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages[key] = append([]byte(nil), body...)
	return fmt.Sprintf("memory://%s", key), nil
}

// Get returns the stored page body and whether the key exists.
func (a *Archive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	body, ok := a.pages[key]
	return body, ok
}

// Len reports how many pages are stored.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.pages)
}
