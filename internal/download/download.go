// Package download implements DOWNLOAD_FILE: a DATA frame carrying the
// file's size, followed by the raw file body streamed directly onto the
// connection outside the framing layer. Grounded on handle_download_file
// in the source, which sends the size as its own small response then
// switches to a manual read/send loop over the raw socket for throughput.
package download

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/manos-filed/filed/internal/fsops"
	"github.com/manos-filed/filed/internal/wire"
)

// BufferSize is the read/write chunk size for the body stream, matching
// the source's 8MiB buffer.
const BufferSize = 8 * 1024 * 1024

// Send opens path, writes a DATA frame containing its size as an 8-byte
// little-endian integer, and then streams the file's contents directly to
// w. The body is written outside the frame layer: the receiving client
// already knows the exact byte count from the size header and reads that
// many raw bytes itself, the same contract handle_download_file uses.
//
// An open or stat failure happens before any frame is written, so Send
// sends an ERROR frame itself in that case — mirroring handle_download_file's
// send_error(... "Cannot open file" / "Cannot stat file") — and the caller
// only needs to log the returned error, not respond to it. A failure once
// the size frame is already on the wire cannot be turned into an ERROR
// frame (the client is already expecting a body of the advertised size),
// so that case is just returned for the caller to log and tear down.
func Send(w io.Writer, path string) error {
	norm := fsops.Normalize(path)
	f, err := os.Open(norm)
	if err != nil {
		_ = wire.WriteFrame(w, wire.RespError, []byte("cannot open file"))
		return errors.Wrap(err, "download: open file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		_ = wire.WriteFrame(w, wire.RespError, []byte("cannot stat file"))
		return errors.Wrap(err, "download: stat file")
	}

	var sizeHdr [8]byte
	binary.LittleEndian.PutUint64(sizeHdr[:], uint64(info.Size()))
	if err := wire.WriteFrame(w, wire.RespData, sizeHdr[:]); err != nil {
		return errors.Wrap(err, "download: write size header")
	}

	buf := make([]byte, BufferSize)
	if _, err := io.CopyBuffer(w, f, buf); err != nil {
		return errors.Wrap(err, "download: stream body")
	}
	return nil
}
