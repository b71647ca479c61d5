// Package server implements the acceptor: binds and tunes the listening
// socket, accepts connections, tunes each one, and hands it to a
// session.Session. Component J's listener half.
package server

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/manos-filed/filed/internal/config"
	"github.com/manos-filed/filed/internal/index"
	"github.com/manos-filed/filed/internal/lockreg"
	"github.com/manos-filed/filed/internal/netutil"
	"github.com/manos-filed/filed/internal/notify"
	"github.com/manos-filed/filed/internal/session"
)

// Server owns the listening socket and the collaborators shared by every
// connection it accepts.
type Server struct {
	cfg      config.Config
	locks    *lockreg.Registry
	index    *index.Index
	notifier notify.Notifier
	log      *logrus.Logger

	mu       sync.Mutex
	ln       net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New returns a Server ready to Run.
func New(cfg config.Config, locks *lockreg.Registry, idx *index.Index, notifier notify.Notifier, log *logrus.Logger) *Server {
	return &Server{
		cfg:      cfg,
		locks:    locks,
		index:    idx,
		notifier: notifier,
		log:      log,
		shutdown: make(chan struct{}),
	}
}

// Run binds the listening socket and serves connections until a
// SHUTDOWN request arrives or the listener errors out. It blocks until
// that happens.
func (srv *Server) Run() error {
	ln, err := netutil.Listen(srv.cfg.ListenAddr)
	if err != nil {
		return errors.Wrap(err, "server: listen")
	}
	srv.mu.Lock()
	srv.ln = ln
	srv.mu.Unlock()
	defer ln.Close()

	addr := ln.Addr().String()
	if err := srv.notifier.Notify("filed listening on " + addr); err != nil {
		srv.log.WithError(err).Debug("server: startup notification failed")
	}
	srv.log.WithField("addr", addr).Info("server: listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-srv.shutdown:
				return nil
			default:
			}
			return errors.Wrap(err, "server: accept")
		}

		if err := netutil.TuneConn(conn); err != nil {
			srv.log.WithError(err).Debug("server: connection tuning failed")
		}

		srv.wg.Add(1)
		go srv.serve(conn)
	}
}

func (srv *Server) serve(conn net.Conn) {
	defer srv.wg.Done()
	deps := session.Deps{
		Locks:    srv.locks,
		Index:    srv.index,
		Notifier: srv.notifier,
		Log:      srv.log,
	}
	sess := session.New(conn, deps)
	if sess.Run() {
		srv.beginShutdown()
	}
}

// beginShutdown closes the listener after a short grace period so
// in-flight sessions can finish their current exchange, then lets Run
// return. It does not forcibly close other connections: the caller only
// needs its own RESP_OK before the process exits, which session.Session
// already guarantees by writing the response before dispatch reports
// shutdown=true.
func (srv *Server) beginShutdown() {
	srv.mu.Lock()
	select {
	case <-srv.shutdown:
		srv.mu.Unlock()
		return
	default:
		close(srv.shutdown)
	}
	ln := srv.ln
	srv.mu.Unlock()

	time.Sleep(srv.cfg.ShutdownGrace)
	if ln != nil {
		ln.Close()
	}
}
