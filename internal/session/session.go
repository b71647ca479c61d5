// Package session drives one accepted connection end to end: read one
// frame, dispatch it against the filesystem/upload/index/shell
// components, write the response, repeat until a short read, SHUTDOWN,
// or connection error ends the loop. Component J's per-connection half,
// paired with internal/server's acceptor.
package session

import (
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/manos-filed/filed/internal/index"
	"github.com/manos-filed/filed/internal/lockreg"
	"github.com/manos-filed/filed/internal/notify"
	"github.com/manos-filed/filed/internal/progress"
	"github.com/manos-filed/filed/internal/shellcmd"
	"github.com/manos-filed/filed/internal/upload"
	"github.com/manos-filed/filed/internal/wire"
)

// Deps are the shared, process-wide collaborators every session needs.
type Deps struct {
	Locks    *lockreg.Registry
	Index    *index.Index
	Notifier notify.Notifier
	Log      *logrus.Logger
}

// connWriter serializes every write to the connection behind one mutex,
// so a background operation's progress frames can never interleave with
// a normal response frame mid-write.
type connWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (c *connWriter) WriteFrame(op wire.Opcode, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wire.WriteFrame(c.conn, op, payload)
}

// WithLock holds the connection's write lock for the duration of fn,
// for operations that write more than one frame (or raw bytes) as an
// atomic sequence: streaming search results, shell command output, and
// file downloads.
func (c *connWriter) WithLock(fn func(w io.Writer) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.conn)
}

// Session is one connection's handler state.
type Session struct {
	conn net.Conn
	deps Deps
	cw   *connWriter

	upload  *upload.Session
	shell   shellcmd.Session
	emitter *progress.Emitter

	log *logrus.Entry
}

// New returns a Session ready to drive conn.
func New(conn net.Conn, deps Deps) *Session {
	cw := &connWriter{conn: conn}
	s := &Session{
		conn:   conn,
		deps:   deps,
		cw:     cw,
		upload: upload.NewSession(deps.Locks),
		log:    deps.Log.WithField("remote", conn.RemoteAddr().String()),
	}
	s.emitter = progress.NewEmitter(cw)
	return s
}

// Run reads and dispatches frames until the connection closes or a
// SHUTDOWN request arrives, in which case it returns true so the caller
// can begin terminating the process.
func (s *Session) Run() (shutdown bool) {
	defer s.cleanup()
	for {
		frame, err := wire.ReadFrame(s.conn)
		if err != nil {
			if err != io.EOF {
				s.log.WithError(err).Debug("session: frame read failed, closing")
			}
			return false
		}
		if s.dispatch(frame) {
			return true
		}
	}
}

func (s *Session) cleanup() {
	s.upload.Abort()
	s.conn.Close()
}
