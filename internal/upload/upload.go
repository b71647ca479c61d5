// Package upload implements the START_UPLOAD / UPLOAD_CHUNK / END_UPLOAD
// state machine for one connection: open (with optional pre-allocation for
// resumable chunked transfers), a sequence of direct writes, and a final
// close-and-chmod. Grounded on handle_start_upload / handle_upload_chunk /
// handle_end_upload in the source.
package upload

import (
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/manos-filed/filed/internal/fsops"
	"github.com/manos-filed/filed/internal/lockreg"
)

// State tracks where a session's upload sits in its lifecycle.
type State int

const (
	// StateIdle means no upload is currently open on this session.
	StateIdle State = iota
	// StateOpen means a file is open and accepting UPLOAD_CHUNK writes.
	StateOpen
	// StateFailed means the last write failed; the session must get a
	// fresh START_UPLOAD before it can write again.
	StateFailed
)

// Request is the decoded START_UPLOAD payload the caller hands to Start.
type Request struct {
	Path        string
	TotalSize   uint64
	ChunkOffset uint64
}

// Session is one connection's in-progress upload. It is not safe for
// concurrent use by more than one goroutine: requests on a single
// connection are handled sequentially, matching the protocol's
// request/response framing on the control channel.
type Session struct {
	reg    *lockreg.Registry
	handle *lockreg.Handle
	file   *os.File
	path   string
	id     string

	state    State
	total    uint64
	received uint64
}

// ID returns the correlation ID assigned to the currently (or most
// recently) open upload, for tying together the START/CHUNK/END log
// lines of one transfer. Empty before the first Start.
func (s *Session) ID() string { return s.id }

// NewSession returns an idle upload session bound to reg for per-path
// locking.
func NewSession(reg *lockreg.Registry) *Session {
	return &Session{reg: reg, state: StateIdle}
}

// State reports the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// Received reports the open upload's starting chunk offset plus the bytes
// written to it since Start. It is 0 when no upload is open: End, a failed
// write and Abort all reset it.
func (s *Session) Received() uint64 { return atomic.LoadUint64(&s.received) }

// Start opens req.Path for writing and readies the session for
// UPLOAD_CHUNK calls. If a previous upload was left open on this
// session without a matching End, it is abandoned first — closed and
// its lock released — matching the source's "if upload_fd >= 0, close
// and release before starting the new one" guard at the top of
// handle_start_upload.
//
// Parent directories are created before the per-path lock is taken,
// same ordering as the source. The per-path lock is then held only
// across the open (and, for a fresh file over the large-file
// threshold, its pre-allocation) — not across the whole upload — so
// concurrent chunk writes to *different* files are never serialized
// against each other.
func (s *Session) Start(req Request) error {
	s.abandon()

	norm := fsops.Normalize(req.Path)
	if err := fsops.MkdirParent(norm); err != nil {
		return errors.Wrap(err, "upload: create parent directory")
	}

	handle := s.reg.Acquire(norm)
	handle.Lock()
	file, err := openForUpload(norm, req)
	handle.Unlock()
	if err != nil {
		s.reg.Release(norm)
		return err
	}

	s.handle = handle
	s.file = file
	s.path = norm
	s.id = uuid.New().String()
	s.total = req.TotalSize
	s.received = req.ChunkOffset
	s.state = StateOpen
	return nil
}

func openForUpload(path string, req Request) (*os.File, error) {
	if req.ChunkOffset > 0 {
		f, err := os.OpenFile(path, os.O_WRONLY, fsops.FileMode)
		if err != nil {
			return nil, errors.Wrap(err, "upload: open existing file for chunk")
		}
		if _, err := f.Seek(int64(req.ChunkOffset), os.SEEK_SET); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "upload: seek to chunk offset")
		}
		return f, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsops.FileMode)
	if err != nil {
		return nil, errors.Wrap(err, "upload: create file")
	}
	if req.TotalSize > fsops.LargeFileThreshold {
		if err := fsops.Preallocate(int64(req.TotalSize), f); err != nil {
			f.Close()
			os.Remove(path)
			return nil, errors.Wrap(err, "upload: pre-allocate file")
		}
		if _, err := f.Seek(0, os.SEEK_SET); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "upload: seek back to start")
		}
	}
	return f, nil
}

// WriteChunk writes one UPLOAD_CHUNK payload to the open file. A short
// write or any write error closes the file, releases the per-path lock,
// and moves the session to StateFailed — a fresh START_UPLOAD is
// required before writing again, matching the source's abandon-on-short-
// write behavior in handle_upload_chunk.
func (s *Session) WriteChunk(data []byte) error {
	if s.state != StateOpen {
		return errors.New("upload: no upload in progress")
	}

	s.handle.Lock()
	n, err := s.file.Write(data)
	s.handle.Unlock()

	if err != nil || n != len(data) {
		s.failNow()
		if err != nil {
			return errors.Wrap(err, "upload: write failed")
		}
		return errors.New("upload: short write")
	}

	atomic.AddUint64(&s.received, uint64(n))
	return nil
}

// End closes the upload file, chmods it to fsops.FileMode, releases the
// per-path lock, and returns the session to StateIdle. Calling End with
// no upload open — including after a failed chunk write, which already
// closed the file and released the lock — is an error, matching
// handle_end_upload's "upload_fd < 0" guard.
func (s *Session) End() error {
	if s.state != StateOpen {
		return errors.New("upload: no upload in progress")
	}
	path := s.path
	closeErr := s.file.Close()
	s.reg.Release(s.path)
	s.reset()

	if closeErr != nil {
		return errors.Wrap(closeErr, "upload: close failed")
	}
	_ = os.Chmod(path, fsops.FileMode)
	return nil
}

// Abort discards any open upload without reporting an error. It is the
// public entry point cleanup code uses when a connection drops mid-
// upload, where there is no one left to send an error response to.
func (s *Session) Abort() {
	s.abandon()
}

// abandon discards a left-open upload without reporting an error,
// mirroring the defensive cleanup at the top of handle_start_upload.
func (s *Session) abandon() {
	if s.state == StateIdle || s.file == nil {
		return
	}
	s.file.Close()
	if s.handle != nil {
		s.reg.Release(s.path)
	}
	s.reset()
}

func (s *Session) failNow() {
	if s.file != nil {
		s.file.Close()
	}
	if s.handle != nil {
		s.reg.Release(s.path)
	}
	s.reset()
	s.state = StateFailed
}

func (s *Session) reset() {
	s.file = nil
	s.handle = nil
	s.path = ""
	s.total = 0
	s.received = 0
	s.state = StateIdle
}
