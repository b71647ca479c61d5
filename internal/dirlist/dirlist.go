// Package dirlist implements LIST_DIR's packed directory entry format:
// a 4-byte entry count followed by, per entry, a type byte, a 2-byte
// little-endian name length, the name, an 8-byte size and an 8-byte
// mtime (both zero for directories). Grounded on handle_list_dir in the
// source.
package dirlist

import (
	"encoding/binary"
	"os"

	"github.com/manos-filed/filed/internal/fsops"
)

// MaxBufferSize caps the packed payload, matching the source's 256KiB
// scratch buffer: once appending the next entry would exceed it, listing
// stops early rather than growing unbounded.
const MaxBufferSize = 256 * 1024

const (
	typeFile = 0
	typeDir  = 1
)

// List builds the packed LIST_DIR payload for path. A path that can't be
// opened as a directory produces a zero-entry payload rather than an
// error, matching opendir() returning NULL in the source.
func List(path string) []byte {
	norm := fsops.Normalize(path)
	entries, err := os.ReadDir(norm)
	if err != nil {
		return packCount(0)
	}

	buf := make([]byte, 4, MaxBufferSize)
	var count uint32
	for _, de := range entries {
		name := de.Name()
		if name == "." || name == ".." {
			continue
		}

		typ := byte(typeFile)
		var size, mtime uint64
		if de.IsDir() {
			typ = typeDir
		} else if info, err := de.Info(); err == nil {
			size = uint64(info.Size())
			mtime = uint64(info.ModTime().Unix())
		}

		nameBytes := []byte(name)
		needed := 1 + 2 + len(nameBytes) + 8 + 8
		if len(buf)+needed > MaxBufferSize {
			break
		}

		buf = append(buf, typ)
		var nameLen [2]byte
		binary.LittleEndian.PutUint16(nameLen[:], uint16(len(nameBytes)))
		buf = append(buf, nameLen[:]...)
		buf = append(buf, nameBytes...)
		var sizeBytes, mtimeBytes [8]byte
		binary.LittleEndian.PutUint64(sizeBytes[:], size)
		binary.LittleEndian.PutUint64(mtimeBytes[:], mtime)
		buf = append(buf, sizeBytes[:]...)
		buf = append(buf, mtimeBytes[:]...)
		count++
	}

	binary.LittleEndian.PutUint32(buf[0:4], count)
	return buf
}

func packCount(n uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, n)
	return buf
}
