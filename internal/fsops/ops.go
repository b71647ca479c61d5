package fsops

import (
	"os"

	"github.com/pkg/errors"
)

// CreateDir recursively creates path, matching handle_create_dir's use of
// mkdir_recursive.
func CreateDir(path string) error {
	return MkdirAll(path)
}

// DeleteFile removes a single file, matching handle_delete_file's unlink.
func DeleteFile(path string) error {
	norm := Normalize(path)
	if err := os.Remove(norm); err != nil {
		return errors.Wrap(err, "fsops: delete file")
	}
	return nil
}

// Rename renames oldPath to newPath in place, matching handle_rename and
// handle_move_file, which are identical apart from their response text —
// both just call rename(2) on the two normalized paths.
func Rename(oldPath, newPath string) error {
	normOld := Normalize(oldPath)
	normNew := Normalize(newPath)
	if err := os.Rename(normOld, normNew); err != nil {
		return errors.Wrap(err, "fsops: rename")
	}
	return nil
}
