package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrMalformedPayload is returned by the payload parsers below when a
// request body is too short for its declared shape.
var ErrMalformedPayload = errors.New("wire: malformed request payload")

// SplitNulPath reads one NUL-terminated path from the start of data and
// returns it together with the number of bytes consumed (including the NUL).
func SplitNulPath(data []byte) (path string, consumed int, err error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", 0, ErrMalformedPayload
	}
	return string(data[:idx]), idx + 1, nil
}

// SplitTwoPaths parses the "old\0new\0..." layout shared by RENAME, COPY_FILE
// and MOVE_FILE: a first NUL-terminated path, followed immediately by a
// second NUL-terminated path. Mirrors the source's pointer arithmetic
// (locate the first NUL, require old_len+2 <= data_len, treat the rest as
// the second string) rather than splitting on every NUL, since a payload
// may legitimately contain no further structure after the second path.
func SplitTwoPaths(data []byte) (first, second string, err error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 || idx+2 > len(data) {
		return "", "", ErrMalformedPayload
	}
	first = string(data[:idx])
	rest := data[idx+1:]
	idx2 := bytes.IndexByte(rest, 0)
	if idx2 < 0 {
		second = string(rest)
	} else {
		second = string(rest[:idx2])
	}
	return first, second, nil
}

// StartUploadRequest is the parsed payload of a START_UPLOAD frame:
// path(NUL-terminated) || total_size(8,LE) || chunk_offset(8,LE,optional).
type StartUploadRequest struct {
	Path        string
	TotalSize   uint64
	ChunkOffset uint64
}

// ParseStartUpload validates and decodes a START_UPLOAD payload. A payload
// shorter than len(path)+1+8 is rejected; a payload exactly that length
// implies ChunkOffset == 0.
func ParseStartUpload(data []byte) (StartUploadRequest, error) {
	path, consumed, err := SplitNulPath(data)
	if err != nil {
		return StartUploadRequest{}, ErrMalformedPayload
	}
	if len(data) < consumed+8 {
		return StartUploadRequest{}, ErrMalformedPayload
	}
	req := StartUploadRequest{
		Path:      path,
		TotalSize: binary.LittleEndian.Uint64(data[consumed : consumed+8]),
	}
	if len(data) >= consumed+16 {
		req.ChunkOffset = binary.LittleEndian.Uint64(data[consumed+8 : consumed+16])
	}
	return req, nil
}
