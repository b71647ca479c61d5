//go:build !linux

package netutil

import "net"

// Listen falls back to the plain standard-library listener on platforms
// where the Linux-specific keepalive knobs below aren't available. It
// still gets SO_REUSEADDR (net.ListenConfig's default on most platforms)
// but not the explicit backlog or pre-bind buffer sizing the Linux path
// applies.
func Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp4", addr)
}

// TuneConn enables TCP_NODELAY and leaves the rest of the tuning to OS
// defaults: TCP_MAXSEG and the fine-grained keepalive knobs used on Linux
// have no portable equivalent through net.Conn.
func TuneConn(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		return tc.SetNoDelay(true)
	}
	return nil
}

// BumpRecvBuffer is a no-op outside Linux; net.Conn exposes no portable
// way to resize the kernel socket buffer after creation.
func BumpRecvBuffer(conn net.Conn, size int) error {
	return nil
}
