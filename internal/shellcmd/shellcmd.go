// Package shellcmd implements the SHELL_OPEN/EXEC/CLOSE built-in command
// set: a small, closed set of filesystem commands running against a
// per-connection working directory, with no subprocess spawned. Mirrors
// the source's intent of a lightweight remote shell without the security
// surface of exec()ing an actual shell.
package shellcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manos-filed/filed/internal/fsops"
)

// DefaultCwd is where a SHELL_OPEN session starts, and where "cd" with no
// argument or "cd ~" returns to.
const DefaultCwd = "/data"

// CatCap is the maximum number of bytes "cat" will stream for one file.
const CatCap = 1 * 1024 * 1024

// CatChunkSize is the size of each DATA frame "cat" emits.
const CatChunkSize = 4 * 1024

// DataFunc is called once per DATA frame a command wants to emit before
// its terminal result.
type DataFunc func(payload []byte) error

// Result is a command's terminal outcome.
type Result struct {
	OK      bool
	Message string
}

func ok(format string, args ...interface{}) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...interface{}) Result {
	return Result{OK: false, Message: fmt.Sprintf(format, args...)}
}

// Session is one connection's shell state: whether SHELL_OPEN has been
// called, and its current working directory.
type Session struct {
	active bool
	cwd    string
}

// Open activates the session and resets its working directory.
func (s *Session) Open() {
	s.active = true
	s.cwd = DefaultCwd
}

// Close deactivates the session.
func (s *Session) Close() {
	s.active = false
}

// Active reports whether SHELL_OPEN has been called without a matching
// SHELL_CLOSE.
func (s *Session) Active() bool { return s.active }

// Cwd returns the session's current working directory.
func (s *Session) Cwd() string { return s.cwd }

// resolve turns a command argument into an absolute, normalized path:
// empty resolves to the working directory itself, relative paths are
// joined against it, absolute paths pass through unchanged.
func (s *Session) resolve(arg string) string {
	if arg == "" {
		return s.cwd
	}
	if filepath.IsAbs(arg) {
		return fsops.Normalize(arg)
	}
	return fsops.Normalize(filepath.Join(s.cwd, arg))
}

// Exec dispatches one SHELL_EXEC command line: the first whitespace-
// delimited token is the command, the remainder (verbatim, whitespace
// preserved) is its argument. Commands outside the closed set below fail
// with Result.OK == false.
func (s *Session) Exec(line string, emit DataFunc) Result {
	cmd, arg := splitCommand(line)
	switch cmd {
	case "ls":
		return s.cmdLs(arg, emit)
	case "pwd":
		return s.cmdPwd(emit)
	case "cd":
		return s.cmdCd(arg)
	case "cat":
		return s.cmdCat(arg, emit)
	case "mkdir":
		return s.cmdMkdir(arg)
	case "rmdir":
		return s.cmdRmdir(arg)
	case "rm":
		return s.cmdRm(arg)
	case "touch":
		return s.cmdTouch(arg)
	case "cp":
		return s.cmdCp(arg)
	case "mv":
		return s.cmdMv(arg)
	case "stat":
		return s.cmdStat(arg, emit)
	case "chmod":
		return s.cmdChmod(arg)
	case "echo":
		return s.cmdEcho(arg, emit)
	case "help":
		return s.cmdHelp(emit)
	default:
		return fail("unknown command: %s", cmd)
	}
}

func splitCommand(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimLeft(line[idx:], " \t")
}

func splitTwoArgs(arg string) (a, b string, ok bool) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func (s *Session) cmdLs(arg string, emit DataFunc) Result {
	dir := s.resolve(arg)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fail("cannot list %s: %v", dir, err)
	}
	for _, de := range entries {
		if err := emit([]byte(de.Name() + "\n")); err != nil {
			return fail("write failed: %v", err)
		}
	}
	return ok("")
}

func (s *Session) cmdPwd(emit DataFunc) Result {
	if err := emit([]byte(s.cwd)); err != nil {
		return fail("write failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdCd(arg string) Result {
	target := arg
	if target == "" || target == "~" {
		target = DefaultCwd
	} else {
		target = s.resolve(target)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return fail("cannot cd to %s", target)
	}
	s.cwd = target
	return ok("")
}

func (s *Session) cmdCat(arg string, emit DataFunc) Result {
	path := s.resolve(arg)
	f, err := os.Open(path)
	if err != nil {
		return fail("cannot open %s: %v", path, err)
	}
	defer f.Close()

	buf := make([]byte, CatChunkSize)
	total := 0
	for total < CatCap {
		n, err := f.Read(buf)
		if n > 0 {
			if sendErr := emit(buf[:n]); sendErr != nil {
				return fail("write failed: %v", sendErr)
			}
			total += n
		}
		if err != nil {
			break
		}
	}
	return ok("")
}

func (s *Session) cmdMkdir(arg string) Result {
	path := s.resolve(arg)
	if err := fsops.CreateDir(path); err != nil {
		return fail("mkdir failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdRmdir(arg string) Result {
	path := s.resolve(arg)
	if err := os.Remove(path); err != nil {
		return fail("rmdir failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdRm(arg string) Result {
	path := s.resolve(arg)
	if err := fsops.DeleteFile(path); err != nil {
		return fail("rm failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdTouch(arg string) Result {
	path := s.resolve(arg)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, fsops.FileMode)
	if err != nil {
		return fail("touch failed: %v", err)
	}
	f.Close()
	return ok("")
}

func (s *Session) cmdCp(arg string) Result {
	src, dst, valid := splitTwoArgs(arg)
	if !valid {
		return fail("usage: cp src dst")
	}
	if err := fsops.CopyFile(s.resolve(src), s.resolve(dst)); err != nil {
		return fail("cp failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdMv(arg string) Result {
	src, dst, valid := splitTwoArgs(arg)
	if !valid {
		return fail("usage: mv src dst")
	}
	if err := fsops.Rename(s.resolve(src), s.resolve(dst)); err != nil {
		return fail("mv failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdStat(arg string, emit DataFunc) Result {
	path := s.resolve(arg)
	info, err := os.Stat(path)
	if err != nil {
		return fail("stat failed: %v", err)
	}
	typ := "file"
	if info.IsDir() {
		typ = "dir"
	}
	line := fmt.Sprintf("name=%s size=%d type=%s perm=%04o",
		info.Name(), info.Size(), typ, info.Mode().Perm())
	if err := emit([]byte(line)); err != nil {
		return fail("write failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdChmod(arg string) Result {
	modeStr, path, valid := splitTwoArgs(arg)
	if !valid {
		return fail("usage: chmod mode path")
	}
	mode, err := strconv.ParseUint(modeStr, 8, 32)
	if err != nil {
		return fail("invalid mode: %s", modeStr)
	}
	if err := os.Chmod(s.resolve(path), os.FileMode(mode)); err != nil {
		return fail("chmod failed: %v", err)
	}
	return ok("")
}

func (s *Session) cmdEcho(arg string, emit DataFunc) Result {
	if err := emit([]byte(arg + "\n")); err != nil {
		return fail("write failed: %v", err)
	}
	return ok("")
}

const helpText = `available commands:
  ls [path]        list directory entries
  pwd              print working directory
  cd [path]        change working directory
  cat <file>       print file contents
  mkdir <path>     create directory
  rmdir <path>     remove empty directory
  rm <path>        remove file
  touch <path>     create empty file
  cp <src> <dst>   copy file
  mv <src> <dst>   rename/move file
  stat <path>      show file metadata
  chmod <mode> <path>  change file permissions (octal)
  echo <text>      print text
  help             show this message
`

func (s *Session) cmdHelp(emit DataFunc) Result {
	if err := emit([]byte(helpText)); err != nil {
		return fail("write failed: %v", err)
	}
	return ok("")
}
