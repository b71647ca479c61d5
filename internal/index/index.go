// Package index implements the in-memory filesystem index: a background
// scan of configured roots, status reporting, and a wildcard+size-filter
// search over the resulting entry list. INDEX_CANCEL checks a generation
// counter between directory entries so a scan actually stops early,
// rather than leaving a permanent RESP_ERROR state behind.
package index

import (
	"os"
	"path/filepath"
	"sync"
)

// Entry is one scanned filesystem object.
type Entry struct {
	Path  string
	Name  string
	Size  uint64
	Mtime uint64
	IsDir bool
}

// skippedLeafNames are never descended into or recorded, at any depth —
// the source's rationale for excluding these from a recursive scan of a
// whole filesystem.
var skippedLeafNames = map[string]bool{
	"dev":  true,
	"proc": true,
	"sys":  true,
}

// Index holds the current scan result and its lifecycle flags.
//
// Cancellation and supersession by a newer Start are both modeled with a
// generation counter rather than a single shared flag: a scan only ever
// writes its result back if its own generation is still current, so an
// old scan winding down can never clobber a newer one's output, and
// Cancel can't be silently undone by a Start that raced it.
type Index struct {
	mu         sync.RWMutex
	entries    []Entry
	indexing   bool
	ready      bool
	generation int64
}

// New returns an empty, not-yet-started Index.
func New() *Index {
	return &Index{}
}

// Start clears the current index and launches a background scan of
// roots. It returns immediately; callers observe progress through
// Status. Starting a new scan while one is already running supersedes
// the running one, which stops at its next checkpoint without touching
// the new scan's state.
func (x *Index) Start(roots []string) {
	x.mu.Lock()
	x.generation++
	gen := x.generation
	x.entries = nil
	x.indexing = true
	x.ready = false
	x.mu.Unlock()

	go x.run(gen, roots)
}

// Cancel requests that the running scan stop at its next directory
// boundary and marks the index as no longer indexing. It is a no-op if no
// scan is running.
func (x *Index) Cancel() {
	x.mu.Lock()
	x.generation++
	x.indexing = false
	x.mu.Unlock()
}

// Status reports whether a scan is running, whether a complete index is
// ready to search, and how many entries it currently holds.
func (x *Index) Status() (indexing, ready bool, count int) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.indexing, x.ready, len(x.entries)
}

func (x *Index) current(gen int64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.generation == gen
}

func (x *Index) run(gen int64, roots []string) {
	var entries []Entry
	cancelled := false
	for _, root := range roots {
		if !x.current(gen) {
			cancelled = true
			break
		}
		x.walk(gen, root, &entries)
		if !x.current(gen) {
			cancelled = true
			break
		}
	}

	x.mu.Lock()
	if x.generation == gen {
		x.entries = entries
		x.indexing = false
		x.ready = !cancelled
	}
	x.mu.Unlock()
}

func (x *Index) walk(gen int64, root string, out *[]Entry) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, de := range entries {
		if !x.current(gen) {
			return
		}
		name := de.Name()
		if skippedLeafNames[name] {
			continue
		}

		full := filepath.Join(root, name)
		var size, mtime uint64
		if info, err := de.Info(); err == nil {
			size = uint64(info.Size())
			mtime = uint64(info.ModTime().Unix())
		}
		*out = append(*out, Entry{Path: full, Name: name, Size: size, Mtime: mtime, IsDir: de.IsDir()})

		if de.IsDir() {
			x.walk(gen, full, out)
		}
	}
}
