// Package lockreg implements the per-path lock table: a reference-counted
// mapping from absolute path to mutex that lets writers to distinct files
// proceed fully in parallel while serializing writers to the same file.
//
// The source keeps this as a singly-linked list scanned under one global
// mutex; this package replaces it with a hashed mapping that preserves the
// same acquire/release semantics.
package lockreg

import "sync"

// Handle is a reference to one path's lock entry. Callers must Release
// exactly once for every successful Acquire, and must not call Lock/Unlock
// after Release.
type Handle struct {
	reg  *Registry
	path string
	mu   *sync.Mutex
}

// Lock takes the exclusive per-path critical section.
func (h *Handle) Lock() { h.mu.Lock() }

// Unlock releases the exclusive per-path critical section.
func (h *Handle) Unlock() { h.mu.Unlock() }

type entry struct {
	mu       sync.Mutex
	refCount int
}

// Registry is the shared, process-wide path-lock table.
//
// The registry's own mutex is held only for map mutations (find/insert/
// decrement/remove); it is always released before the per-path mutex is
// taken, so a long-held write to one file never blocks Acquire/Release
// for a different file.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Acquire returns a handle on the lock for path, creating the entry if it
// doesn't exist and incrementing its reference count otherwise. Every
// Acquire must be paired with exactly one Release.
func (r *Registry) Acquire(path string) *Handle {
	r.mu.Lock()
	e, ok := r.entries[path]
	if !ok {
		e = &entry{refCount: 0}
		r.entries[path] = e
	}
	e.refCount++
	r.mu.Unlock()
	return &Handle{reg: r, path: path, mu: &e.mu}
}

// Release decrements path's reference count, destroying the entry once it
// reaches zero. Releasing a path with no outstanding acquisitions is a
// programmer error and panics: the reference count must never observably
// go negative.
func (r *Registry) Release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[path]
	if !ok {
		panic("lockreg: release of unknown path " + path)
	}
	e.refCount--
	if e.refCount < 0 {
		panic("lockreg: negative ref count for path " + path)
	}
	if e.refCount == 0 {
		delete(r.entries, path)
	}
}

// Len reports the number of distinct paths currently tracked; used by tests,
// never on the request hot path.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
