// Package fsops provides the filesystem helpers used by the session
// handlers: path normalization, recursive mkdir/rmdir with progress,
// recursive file counting, pre-allocation, and plain copy. Adapted from
// the style of rclone's backend/local.
package fsops

import "strings"

// Normalize collapses runs of '/' to a single '/', matching the source's
// normalize_path(). It does NOT resolve "." or ".." components and does not
// confine the result to any root: the wire protocol never sandboxed paths,
// so callers that need confinement must add it themselves above this layer.
func Normalize(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	prevSlash := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
