//go:build windows || plan9 || js

package fsops

import "os"

// Preallocate on platforms without a fallocate-equivalent wired in falls
// straight back to the seek-and-write-one-byte trick.
func Preallocate(size int64, out *os.File) error {
	if size <= 0 {
		return nil
	}
	return writeLastByte(size, out)
}
