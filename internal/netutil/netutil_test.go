package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAndAccept(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().String()
	done := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
		}
		done <- err
	}()

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, <-done)

	assert.NoError(t, TuneConn(conn))
}

func TestBumpRecvBufferDoesNotError(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().String()
	go func() {
		conn, _ := net.Dial("tcp", addr)
		if conn != nil {
			defer conn.Close()
		}
	}()

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, BumpRecvBuffer(conn, BufferSize))
}
