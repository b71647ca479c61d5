package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/manos-filed/filed/internal/progress"
)

// CountTree returns the total number of regular files plus directories
// under path, counting the directory itself for every subdirectory
// encountered (matching count_files_recursive()'s "count the directory
// itself" + recurse). Progress is reported via emit every 500 files or 3
// seconds of wall time, whichever comes first — only file entries advance
// the throttle, matching the source which only bumps g_scan_count on the
// non-directory branch.
//
// A path that can't be opened as a directory (already gone, or was never a
// directory) is reported as zero entries, not an error, matching opendir()
// returning NULL in the source.
func CountTree(path string, emit progress.Func) int {
	th := progress.NewThrottle(500, 3*time.Second)
	return countTree(path, th, emit)
}

func countTree(dir string, th *progress.Throttle, emit progress.Func) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, de := range entries {
		child := filepath.Join(dir, de.Name())
		if de.IsDir() {
			count++ // count the directory itself
			count += countTree(child, th, emit)
			continue
		}
		count++
		if th.Tick() && emit != nil {
			_ = emit(fmt.Sprintf("📊 Scanning... found %d files so far", th.Count()))
		}
	}
	return count
}

// RemoveResult summarizes a completed RemoveTree call.
type RemoveResult struct {
	Deleted int
	Total   int
	Ok      bool
}

// RemoveTree depth-first removes every file under dir, recurses into
// subdirectories, and rmdirs dir itself on the way back up — exactly the
// order rmdir_recursive() in the source uses. total should be a prior
// CountTree result and is only used to compute the percentage in progress
// messages; it does not bound the walk.
//
// Progress is reported every 50 files or 2 seconds, whichever first.
//
// If dir can't be opened at all (already removed, or never existed) the
// source still attempts os.Remove(dir) and treats that as success, so an
// already-empty or already-gone target does not fail the overall delete —
// this is the "still try to delete the empty folder itself" branch of the
// background deletion thread in the source.
func RemoveTree(dir string, total int, emit progress.Func) RemoveResult {
	th := progress.NewThrottle(50, 2*time.Second)
	removeTree(dir, total, th, emit)
	err := os.Remove(dir)
	ok := err == nil || os.IsNotExist(err)
	return RemoveResult{Deleted: th.Count(), Total: total, Ok: ok}
}

func removeTree(dir string, total int, th *progress.Throttle, emit progress.Func) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, de := range entries {
		child := filepath.Join(dir, de.Name())
		if de.IsDir() {
			removeTree(child, total, th, emit)
			_ = os.Remove(child)
			continue
		}
		if err := os.Remove(child); err != nil {
			continue
		}
		if th.Tick() && emit != nil {
			pct := 0
			if total > 0 {
				pct = th.Count() * 100 / total
			}
			_ = emit(fmt.Sprintf("🗑️ Deleting... %d/%d files (%d%%)", th.Count(), total, pct))
		}
	}
}
