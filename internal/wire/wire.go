// Package wire implements the length-prefixed binary framing used on the
// control connection: one opcode byte, a 4-byte little-endian length, and
// the payload.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Opcode identifies a request or response frame type.
type Opcode byte

// Request opcodes.
const (
	OpPing           Opcode = 0x01
	OpListDir        Opcode = 0x03
	OpCreateDir      Opcode = 0x04
	OpDeleteFile     Opcode = 0x05
	OpDeleteDir      Opcode = 0x06
	OpRename         Opcode = 0x07
	OpCopyFile       Opcode = 0x08
	OpMoveFile       Opcode = 0x09
	OpStartUpload    Opcode = 0x10
	OpUploadChunk    Opcode = 0x11
	OpEndUpload      Opcode = 0x12
	OpDownloadFile   Opcode = 0x13
	OpShellOpen      Opcode = 0x20
	OpShellExec      Opcode = 0x21
	OpShellInterrupt Opcode = 0x22
	OpShellClose     Opcode = 0x23
	OpIndexStart     Opcode = 0x40
	OpIndexStatus    Opcode = 0x41
	OpSearchIndex    Opcode = 0x42
	OpIndexCancel    Opcode = 0x43
	OpShutdown       Opcode = 0xFF
)

// Response opcodes.
const (
	RespOK       Opcode = 0x01
	RespError    Opcode = 0x02
	RespData     Opcode = 0x03
	RespReady    Opcode = 0x04
	RespProgress Opcode = 0x05
)

// HeaderSize is the fixed opcode+length prefix on every frame.
const HeaderSize = 5

// MaxPayload is the hard cap on a single frame's payload; anything larger
// is a framing error and the session is torn down.
const MaxPayload = 8 * 1024 * 1024

// ErrOversizedPayload is returned when a declared payload length exceeds MaxPayload.
var ErrOversizedPayload = errors.New("wire: payload exceeds connection buffer cap")

// Frame is one decoded request or response unit.
type Frame struct {
	Op      Opcode
	Payload []byte
}

// ReadFrame reads exactly one frame: a 5-byte header followed by its payload.
// A short read on either the header or the body is reported as io.ErrUnexpectedEOF
// (except a clean EOF on the very first header byte, which is passed through
// so callers can distinguish a tidy disconnect from a torn one).
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, errors.Wrap(err, "wire: short header read")
	}
	op := Opcode(hdr[0])
	length := binary.LittleEndian.Uint32(hdr[1:5])
	if length > MaxPayload {
		return Frame{}, ErrOversizedPayload
	}
	if length == 0 {
		return Frame{Op: op}, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, errors.Wrap(err, "wire: short body read")
	}
	return Frame{Op: op, Payload: payload}, nil
}

// WriteFrame writes one frame as a single concatenated header+payload write,
// matching the source protocol's "combine header and data into single
// buffer for single send()" optimization: tiny separate writes for the
// header and body would each hit the network as their own packet.
func WriteFrame(w io.Writer, op Opcode, payload []byte) error {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = byte(op)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// NewWriter wraps w in a bufio.Writer sized to avoid the Nagle-defeating
// tiny-packet problem on writers that don't support a single vectored write.
func NewWriter(w io.Writer) *bufio.Writer {
	return bufio.NewWriterSize(w, HeaderSize+64*1024)
}
