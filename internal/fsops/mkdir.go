package fsops

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// DirMode is the permission mode every directory this server creates ends
// up with, whether via MkdirAll's own os.Mkdir calls or its trailing chmod
// pass: matches the source's mkdir(path, 0777) + chmod(path, 0777) on every
// created path component.
const DirMode = 0777

// FileMode is the permission mode applied to uploaded and copied files,
// matching the source's chmod(path, 0777) after upload/copy completes.
const FileMode = 0777

// MkdirAll creates every missing prefix directory of dir, tolerating
// "already exists" on each component and chmod-ing every component it
// creates (or that already existed) to DirMode, mirroring mkdir_recursive()
// in the source exactly: it walks the normalized path one '/' at a time.
func MkdirAll(dir string) error {
	norm := Normalize(dir)
	norm = strings.TrimSuffix(norm, "/")
	if norm == "" {
		return nil
	}

	var prefix strings.Builder
	// norm[0] is '/' for absolute paths; start scanning from index 1 so we
	// don't try to mkdir the empty string before the leading slash.
	start := 0
	if norm[0] == '/' {
		prefix.WriteByte('/')
		start = 1
	}
	for i := start; i < len(norm); i++ {
		if norm[i] == '/' {
			component := norm[:i]
			if err := mkdirOne(component); err != nil {
				return err
			}
		}
	}
	return mkdirOne(norm)
}

func mkdirOne(p string) error {
	if p == "" {
		return nil
	}
	if err := os.Mkdir(p, DirMode); err != nil && !os.IsExist(err) {
		return errors.Wrapf(err, "fsops: mkdir %q", p)
	}
	_ = os.Chmod(p, DirMode)
	return nil
}

// MkdirParent creates the parent directory of p, the shape START_UPLOAD
// needs: the source locates the last '/' in the normalized path and
// recurses on everything before it.
func MkdirParent(p string) error {
	dir := path.Dir(Normalize(p))
	if dir == "." || dir == "/" {
		return nil
	}
	return MkdirAll(dir)
}
