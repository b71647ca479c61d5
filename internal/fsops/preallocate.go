package fsops

import "os"

// writeLastByte grows out to size by seeking to its last byte and writing a
// single zero, the same pre-allocation technique handle_start_upload used
// for any file over the large-file threshold before fallocate existed in
// this codebase. It leaves the file offset at size; callers that need to
// write from the start must seek back themselves.
func writeLastByte(size int64, out *os.File) error {
	if _, err := out.Seek(size-1, 0); err != nil {
		return err
	}
	if _, err := out.Write([]byte{0}); err != nil {
		return err
	}
	return nil
}

// LargeFileThreshold is the file size above which an upload gets
// pre-allocated on open, matching the source's 100MiB cutoff.
const LargeFileThreshold = 100 * 1024 * 1024
