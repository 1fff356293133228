package assets

import (
	"context"
	"sync"
)

// MapResolver is an in-memory asset-path resolver for tests and embedding
// hosts that manage identity themselves.
type MapResolver struct {
	mu    sync.Mutex
	paths map[string]string
}

// NewMapResolver returns an empty resolver.
func NewMapResolver() *MapResolver {
	return &MapResolver{paths: make(map[string]string)}
}

// Set registers or replaces the path for an asset id.
func (r *MapResolver) Set(id, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[id] = path
}

// Delete removes an asset id.
func (r *MapResolver) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, id)
}

// Path resolves an asset id to its registered path.
func (r *MapResolver) Path(_ context.Context, id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.paths[id]
	if !ok || path == "" {
		return "", false
	}
	return path, true
}
