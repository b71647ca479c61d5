// Package progress interleaves advisory PROGRESS frames on the connection
// that triggered a long-running operation.
//
// The source threads this through process globals (g_scan_count,
// g_delete_count, g_last_notify, g_client_sock); this package replaces
// that with per-operation state threaded into the walker and emitter
// instead, which is what Emitter and Throttle are for.
package progress

import (
	"sync"

	"github.com/manos-filed/filed/internal/wire"
)

// Func is called with a human-readable progress message. Implementations
// must be safe to call from the goroutine driving a background operation.
type Func func(message string) error

// Emitter binds PROGRESS frames to a single connection's writer. One
// Emitter is constructed per connection and handed to whichever operation
// (recursive delete, index scan) is currently running on it; unlike the
// source's single global client socket, two connections each get their
// own Emitter and can run long operations concurrently without interfering.
type Emitter struct {
	mu sync.Mutex
	w  WriteFramer
}

// WriteFramer is the subset of the session's outbound connection an
// Emitter needs; the session's connWriter satisfies it.
type WriteFramer interface {
	WriteFrame(op wire.Opcode, payload []byte) error
}

// NewEmitter returns an Emitter that writes PROGRESS frames through w.
func NewEmitter(w WriteFramer) *Emitter {
	return &Emitter{w: w}
}

// Emit sends one PROGRESS frame. Safe for concurrent use, though in
// practice only one background operation drives a given connection at a
// time: clients are expected not to issue further requests while one is
// in flight.
func (e *Emitter) Emit(message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.WriteFrame(wire.RespProgress, []byte(message))
}
