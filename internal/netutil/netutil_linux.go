//go:build linux

package netutil

import (
	"net"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Listen creates, tunes, binds and listens on a TCPv4 socket at addr,
// using raw syscalls rather than net.Listen so SO_REUSEADDR can be set
// before bind and the accept backlog can be set explicitly — neither is
// reachable through net.ListenConfig on every platform Go supports.
func Listen(addr string) (net.Listener, error) {
	resolved, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, errors.Wrap(err, "netutil: resolve listen address")
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, errors.Wrap(err, "netutil: socket")
	}
	// Close the raw descriptor on every setup failure until os.NewFile
	// below takes ownership of it; net.FileListener then works on its own
	// dup, and f.Close releases the original.
	owned := true
	defer func() {
		if owned {
			unix.Close(fd)
		}
	}()

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return nil, errors.Wrap(err, "netutil: SO_REUSEADDR")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, BufferSize); err != nil {
		return nil, errors.Wrap(err, "netutil: SO_RCVBUF")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, BufferSize); err != nil {
		return nil, errors.Wrap(err, "netutil: SO_SNDBUF")
	}

	sa := &unix.SockaddrInet4{Port: resolved.Port}
	if ip4 := resolved.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return nil, errors.Wrap(err, "netutil: bind")
	}
	if err := unix.Listen(fd, ListenBacklog); err != nil {
		return nil, errors.Wrap(err, "netutil: listen")
	}

	f := os.NewFile(uintptr(fd), "filed-listener")
	owned = false
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, errors.Wrap(err, "netutil: FileListener")
	}
	return ln, nil
}

// TuneConn applies the per-connection socket options the session loop
// wants: large buffers, TCP_NODELAY, a fixed MSS, and keepalive. conn
// must be a *net.TCPConn; anything else is left untouched.
func TuneConn(conn net.Conn) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetNoDelay(true); err != nil {
		return errors.Wrap(err, "netutil: TCP_NODELAY")
	}

	rc, err := tc.SyscallConn()
	if err != nil {
		return errors.Wrap(err, "netutil: SyscallConn")
	}

	var sockErr error
	ctrlErr := rc.Control(func(fd uintptr) {
		sockErr = tuneConnSocket(int(fd))
	})
	if ctrlErr != nil {
		return errors.Wrap(ctrlErr, "netutil: control")
	}
	return sockErr
}

func tuneConnSocket(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, BufferSize); err != nil {
		return errors.Wrap(err, "netutil: SO_RCVBUF")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, BufferSize); err != nil {
		return errors.Wrap(err, "netutil: SO_SNDBUF")
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_MAXSEG, TCPMaxSegment); err != nil {
		return errors.Wrap(err, "netutil: TCP_MAXSEG")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return errors.Wrap(err, "netutil: SO_KEEPALIVE")
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, int(KeepaliveIdle.Seconds())); err != nil {
		return errors.Wrap(err, "netutil: TCP_KEEPIDLE")
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(KeepaliveInterval.Seconds())); err != nil {
		return errors.Wrap(err, "netutil: TCP_KEEPINTVL")
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, KeepaliveCount); err != nil {
		return errors.Wrap(err, "netutil: TCP_KEEPCNT")
	}
	// Receive/send timeouts stay disabled: we never call SetDeadline, and
	// a zero deadline means "no timeout" in net.Conn's default state.
	return nil
}

// BumpRecvBuffer raises conn's receive buffer for the duration of an
// upload, matching the source's one-off SO_RCVBUF bump in
// handle_start_upload once it knows a large chunked transfer is starting.
func BumpRecvBuffer(conn net.Conn, size int) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	rc, err := tc.SyscallConn()
	if err != nil {
		return errors.Wrap(err, "netutil: SyscallConn")
	}
	var sockErr error
	ctrlErr := rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size)
	})
	if ctrlErr != nil {
		return errors.Wrap(ctrlErr, "netutil: control")
	}
	return sockErr
}
