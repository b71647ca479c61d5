package session

import (
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manos-filed/filed/internal/index"
	"github.com/manos-filed/filed/internal/lockreg"
	"github.com/manos-filed/filed/internal/notify"
	"github.com/manos-filed/filed/internal/wire"
)

func newTestSession(t *testing.T) (client net.Conn, done chan bool) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	log := logrus.New()
	log.SetOutput(testWriter{t})

	deps := Deps{
		Locks:    lockreg.New(),
		Index:    index.New(),
		Notifier: notify.NewLoggingNotifier(log),
		Log:      log,
	}
	s := New(serverConn, deps)

	done = make(chan bool, 1)
	go func() {
		done <- s.Run()
	}()
	t.Cleanup(func() { clientConn.Close() })
	return clientConn, done
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestPingRespondsOK(t *testing.T) {
	client, _ := newTestSession(t)
	require.NoError(t, wire.WriteFrame(client, wire.OpPing, nil))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
	assert.Equal(t, "pong", string(frame.Payload))
}

func TestCreateDirDeleteFileRoundTrip(t *testing.T) {
	root := t.TempDir()
	client, _ := newTestSession(t)

	dirPath := filepath.Join(root, "sub")
	require.NoError(t, wire.WriteFrame(client, wire.OpCreateDir, append([]byte(dirPath), 0)))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	info, err := os.Stat(dirPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	filePath := filepath.Join(dirPath, "f.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0600))
	require.NoError(t, wire.WriteFrame(client, wire.OpDeleteFile, append([]byte(filePath), 0)))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
	_, err = os.Stat(filePath)
	assert.True(t, os.IsNotExist(err))
}

func TestListDirReturnsPackedEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0600))

	client, _ := newTestSession(t)
	require.NoError(t, wire.WriteFrame(client, wire.OpListDir, append([]byte(root), 0)))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespData, frame.Op)
	count := binary.LittleEndian.Uint32(frame.Payload[:4])
	assert.Equal(t, uint32(1), count)
}

func TestRenameCopyMove(t *testing.T) {
	root := t.TempDir()
	client, _ := newTestSession(t)

	src := filepath.Join(root, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0600))

	renamed := filepath.Join(root, "renamed.txt")
	payload := append(append([]byte(src), 0), []byte(renamed)...)
	require.NoError(t, wire.WriteFrame(client, wire.OpRename, payload))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	copied := filepath.Join(root, "copied.txt")
	payload = append(append([]byte(renamed), 0), []byte(copied)...)
	require.NoError(t, wire.WriteFrame(client, wire.OpCopyFile, payload))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	moved := filepath.Join(root, "moved.txt")
	payload = append(append([]byte(copied), 0), []byte(moved)...)
	require.NoError(t, wire.WriteFrame(client, wire.OpMoveFile, payload))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	_, err = os.Stat(moved)
	assert.NoError(t, err)
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "uploaded.bin")
	client, _ := newTestSession(t)

	var startPayload []byte
	startPayload = append(startPayload, []byte(target)...)
	startPayload = append(startPayload, 0)
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], 11)
	startPayload = append(startPayload, sizeBuf[:]...)

	require.NoError(t, wire.WriteFrame(client, wire.OpStartUpload, startPayload))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespReady, frame.Op)

	require.NoError(t, wire.WriteFrame(client, wire.OpUploadChunk, []byte("hello world")))

	require.NoError(t, wire.WriteFrame(client, wire.OpEndUpload, nil))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	require.NoError(t, wire.WriteFrame(client, wire.OpDownloadFile, append([]byte(target), 0)))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespData, frame.Op)
	assert.Equal(t, uint64(11), binary.LittleEndian.Uint64(frame.Payload))

	body := make([]byte, 11)
	_, err = readFull(client, body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestShellOpenExecClose(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("hi"), 0600))
	client, _ := newTestSession(t)

	require.NoError(t, wire.WriteFrame(client, wire.OpShellOpen, nil))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	require.NoError(t, wire.WriteFrame(client, wire.OpShellExec, []byte("echo hi")))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespData, frame.Op)
	assert.Equal(t, "hi\n", string(frame.Payload))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	require.NoError(t, wire.WriteFrame(client, wire.OpShellClose, nil))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
}

func TestShellExecWithoutOpenFails(t *testing.T) {
	client, _ := newTestSession(t)
	require.NoError(t, wire.WriteFrame(client, wire.OpShellExec, []byte("pwd")))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespError, frame.Op)
}

func TestIndexStartStatusSearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "match.log"), nil, 0600))
	client, _ := newTestSession(t)

	require.NoError(t, wire.WriteFrame(client, wire.OpIndexStart, []byte(root)))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, wire.WriteFrame(client, wire.OpIndexStatus, nil))
		frame, err = wire.ReadFrame(client)
		require.NoError(t, err)
		if string(frame.Payload) != "indexing (0 entries)" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("index never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, wire.WriteFrame(client, wire.OpSearchIndex, []byte("*.log")))
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespData, frame.Op)
	frame, err = wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
}

func TestIndexCancelRespondsOK(t *testing.T) {
	client, _ := newTestSession(t)
	require.NoError(t, wire.WriteFrame(client, wire.OpIndexCancel, nil))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
}

func TestShutdownReturnsOKAndSignalsCaller(t *testing.T) {
	client, done := newTestSession(t)
	require.NoError(t, wire.WriteFrame(client, wire.OpShutdown, nil))
	frame, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, wire.RespOK, frame.Op)
	assert.True(t, <-done)
}

func TestDeleteDirStreamsProgressThenOK(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "victim")
	require.NoError(t, os.MkdirAll(target, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("x"), 0600))

	client, _ := newTestSession(t)
	require.NoError(t, wire.WriteFrame(client, wire.OpDeleteDir, append([]byte(target), 0)))

	var last wire.Frame
	deadline := time.Now().Add(2 * time.Second)
	for {
		client.SetReadDeadline(deadline)
		frame, err := wire.ReadFrame(client)
		require.NoError(t, err)
		last = frame
		if frame.Op == wire.RespOK || frame.Op == wire.RespError {
			break
		}
	}
	assert.Equal(t, wire.RespOK, last.Op)
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}
