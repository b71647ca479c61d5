package fsops

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// CopyBufferSize is the read/write chunk size used by CopyFile, matching
// the source's 8MiB buffer sized for throughput over a local disk.
const CopyBufferSize = 8 * 1024 * 1024

// CopyFile copies src to dst byte for byte, truncating dst if it already
// exists, and chmods the result to FileMode on the way out regardless of
// whether the copy itself succeeded — matching handle_copy_file(), which
// chmods norm_dst unconditionally before reporting success or failure.
func CopyFile(src, dst string) error {
	normSrc := Normalize(src)
	normDst := Normalize(dst)

	in, err := os.Open(normSrc)
	if err != nil {
		return errors.Wrap(err, "fsops: open source")
	}
	defer in.Close()

	out, err := os.OpenFile(normDst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return errors.Wrap(err, "fsops: create destination")
	}

	buf := make([]byte, CopyBufferSize)
	_, copyErr := io.CopyBuffer(out, in, buf)
	closeErr := out.Close()
	_ = os.Chmod(normDst, FileMode)

	if copyErr != nil {
		return errors.Wrap(copyErr, "fsops: copy")
	}
	return closeErr
}
