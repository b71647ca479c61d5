package server

import (
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manos-filed/filed/internal/config"
	"github.com/manos-filed/filed/internal/index"
	"github.com/manos-filed/filed/internal/lockreg"
	"github.com/manos-filed/filed/internal/notify"
	"github.com/manos-filed/filed/internal/wire"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.ShutdownGrace = 10 * time.Millisecond

	srv := New(cfg, lockreg.New(), index.New(), notify.NewLoggingNotifier(log), log)
	go srv.Run()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		srv.mu.Lock()
		ln := srv.ln
		srv.mu.Unlock()
		if ln != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, srv.ln)
	return srv
}

func TestServerAcceptsAndRespondsToPing(t *testing.T) {
	srv := startTestServer(t)
	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteFrame(conn, wire.OpPing, nil))
	frame, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
	assert.Equal(t, "pong", string(frame.Payload))
}

func TestServerShutdownClosesListener(t *testing.T) {
	srv := startTestServer(t)
	addr := srv.ln.Addr().String()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteFrame(conn, wire.OpShutdown, nil))
	frame, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	time.Sleep(100 * time.Millisecond)
	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}
