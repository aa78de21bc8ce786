// Package handles holds encoded byte buffers behind opaque handles, the
// in-memory stand-in for a platform object-URL table. The registry is
// injected into the converter and the record store so tests can observe
// allocation and release counts.
package handles

import (
	"sync"

	"github.com/google/uuid"

	"imgconv/contracts"
)

type entry struct {
	data      []byte
	mediaType string
}

// Registry maps handles to byte buffers. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[contracts.Handle]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[contracts.Handle]entry)}
}

// Create stores data under a fresh handle. The registry keeps its own
// reference to data; callers must not mutate the slice afterwards.
func (r *Registry) Create(data []byte, mediaType string) contracts.Handle {
	h := contracts.Handle("mem:" + uuid.NewString())
	r.mu.Lock()
	r.entries[h] = entry{data: data, mediaType: mediaType}
	r.mu.Unlock()
	return h
}

// Get returns the bytes and media type behind h. The second return is
// false for the empty handle and for released handles.
func (r *Registry) Get(h contracts.Handle) ([]byte, string, bool) {
	if h == "" {
		return nil, "", false
	}
	r.mu.Lock()
	e, ok := r.entries[h]
	r.mu.Unlock()
	if !ok {
		return nil, "", false
	}
	return e.data, e.mediaType, true
}

// Release frees the buffer behind h. Releasing the empty handle or a
// handle that was already released is a no-op.
func (r *Registry) Release(h contracts.Handle) {
	if h == "" {
		return
	}
	r.mu.Lock()
	delete(r.entries, h)
	r.mu.Unlock()
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
