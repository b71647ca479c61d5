// Package netutil applies the socket tuning the acceptor and session
// loop need that Go's net package doesn't expose directly — SO_REUSEADDR
// before bind, large receive/send buffers, TCP_NODELAY, a fixed
// TCP_MAXSEG, and TCP keepalive with an explicit idle/interval/count —
// grounded on the same direct golang.org/x/sys/unix use rclone's
// backend/local uses for fallocate and platform-specific chmod.
package netutil

import "time"

// BufferSize is the socket receive/send buffer size applied at both bind
// time and per-connection, matching the 16MiB buffers used throughout
// the session loop for sustained transfer throughput.
const BufferSize = 16 * 1024 * 1024

// ListenBacklog is the accept queue depth for the bound listening socket.
const ListenBacklog = 128

// TCPMaxSegment is the MSS advertised on every accepted connection.
const TCPMaxSegment = 1460

// Keepalive tuning: a dead peer is dropped in roughly
// KeepaliveIdle + KeepaliveInterval*KeepaliveCount of inactivity.
const (
	KeepaliveIdle     = 10 * time.Second
	KeepaliveInterval = 5 * time.Second
	KeepaliveCount    = 3
)
