//go:build !windows && !plan9 && !js

package fsops

import (
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Fallocate flag combinations tried in order, falling back to the next one
// on ENOTSUP. Some filesystems (notably ZFS) reject FALLOC_FL_KEEP_SIZE
// alone but accept it combined with FALLOC_FL_PUNCH_HOLE.
var (
	fallocFlags = [...]uint32{
		unix.FALLOC_FL_KEEP_SIZE,
		unix.FALLOC_FL_KEEP_SIZE | unix.FALLOC_FL_PUNCH_HOLE,
	}
	fallocFlagsIndex int32
)

// Preallocate reserves size bytes of disk space for out and grows its
// apparent length to at least size, so that later seeked writes from
// parallel chunk uploads land inside the file rather than extending it.
// size<=0 is a no-op.
//
// Falls back silently to writeLastByte when fallocate isn't supported by the
// underlying filesystem, matching the source's own fallback (seek to
// size-1, write one zero byte) for exactly this case.
func Preallocate(size int64, out *os.File) error {
	if size <= 0 {
		return nil
	}
	index := atomic.LoadInt32(&fallocFlagsIndex)
	for {
		if index >= int32(len(fallocFlags)) {
			return writeLastByte(size, out)
		}
		err := unix.Fallocate(int(out.Fd()), fallocFlags[index], 0, size)
		if err == unix.ENOTSUP {
			index++
			atomic.StoreInt32(&fallocFlagsIndex, index)
			continue
		}
		if err != nil {
			return err
		}
		// Every flag combination above keeps the size, so grow it here.
		info, err := out.Stat()
		if err != nil {
			return err
		}
		if info.Size() < size {
			return out.Truncate(size)
		}
		return nil
	}
}
