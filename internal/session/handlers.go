package session

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manos-filed/filed/internal/dirlist"
	"github.com/manos-filed/filed/internal/download"
	"github.com/manos-filed/filed/internal/fsops"
	"github.com/manos-filed/filed/internal/index"
	"github.com/manos-filed/filed/internal/netutil"
	"github.com/manos-filed/filed/internal/upload"
	"github.com/manos-filed/filed/internal/wire"
)

// dispatch runs one decoded frame against the session's state and
// writes the response(s). It reports whether the caller sent SHUTDOWN.
func (s *Session) dispatch(frame wire.Frame) bool {
	switch frame.Op {
	case wire.OpPing:
		s.respondOK("pong")

	case wire.OpListDir:
		s.handleListDir(frame.Payload)

	case wire.OpCreateDir:
		s.handleCreateDir(frame.Payload)

	case wire.OpDeleteFile:
		s.handleDeleteFile(frame.Payload)

	case wire.OpDeleteDir:
		s.handleDeleteDir(frame.Payload)

	case wire.OpRename:
		s.handleRename(frame.Payload)

	case wire.OpCopyFile:
		s.handleCopyFile(frame.Payload)

	case wire.OpMoveFile:
		s.handleMoveFile(frame.Payload)

	case wire.OpStartUpload:
		s.handleStartUpload(frame.Payload)

	case wire.OpUploadChunk:
		s.handleUploadChunk(frame.Payload)

	case wire.OpEndUpload:
		s.handleEndUpload()

	case wire.OpDownloadFile:
		s.handleDownloadFile(frame.Payload)

	case wire.OpShellOpen:
		s.shell.Open()
		s.respondOK("shell ready")

	case wire.OpShellExec:
		s.handleShellExec(frame.Payload)

	case wire.OpShellInterrupt:
		s.respondError("not supported")

	case wire.OpShellClose:
		s.shell.Close()
		s.respondOK("")

	case wire.OpIndexStart:
		s.handleIndexStart(frame.Payload)

	case wire.OpIndexStatus:
		s.handleIndexStatus()

	case wire.OpSearchIndex:
		s.handleSearchIndex(frame.Payload)

	case wire.OpIndexCancel:
		s.deps.Index.Cancel()
		s.respondOK("index scan cancelled")

	case wire.OpShutdown:
		s.respondOK("")
		return true

	default:
		s.respondError(fmt.Sprintf("unknown opcode 0x%02x", byte(frame.Op)))
	}
	return false
}

func (s *Session) respondOK(message string) {
	_ = s.cw.WriteFrame(wire.RespOK, []byte(message))
}

func (s *Session) respondError(message string) {
	_ = s.cw.WriteFrame(wire.RespError, []byte(message))
}

func (s *Session) handleListDir(payload []byte) {
	path, _, err := wire.SplitNulPath(payload)
	if err != nil {
		s.respondError("invalid list request")
		return
	}
	buf := dirlist.List(path)
	_ = s.cw.WriteFrame(wire.RespData, buf)
}

func (s *Session) handleCreateDir(payload []byte) {
	path, _, err := wire.SplitNulPath(payload)
	if err != nil {
		s.respondError("invalid create dir request")
		return
	}
	if err := fsops.CreateDir(path); err != nil {
		s.respondError("failed to create directory")
		return
	}
	s.respondOK("directory created")
}

func (s *Session) handleDeleteFile(payload []byte) {
	path, _, err := wire.SplitNulPath(payload)
	if err != nil {
		s.respondError("invalid delete request")
		return
	}
	if err := fsops.DeleteFile(path); err != nil {
		s.respondError("failed to delete file")
		return
	}
	s.respondOK("file deleted")
}

// handleDeleteDir mirrors the source's detached background-deletion
// thread: no immediate OK, a scan-count progress message, a deletion
// progress stream, and a terminal OK/ERROR once the recursive remove
// finishes. Running it in a goroutine returns this connection's session
// loop to reading frames instead of blocking it on a large delete.
func (s *Session) handleDeleteDir(payload []byte) {
	path, _, err := wire.SplitNulPath(payload)
	if err != nil {
		s.respondError("invalid delete request")
		return
	}
	norm := fsops.Normalize(path)

	go func() {
		_ = s.emitter.Emit(fmt.Sprintf("📊 Scanning folder: %s", norm))
		total := fsops.CountTree(norm, s.emitter.Emit)

		if total == 0 {
			_ = s.emitter.Emit("⚠️ Folder is empty or already deleted")
			_ = os.Remove(norm)
			s.respondOK("")
			return
		}

		_ = s.emitter.Emit(fmt.Sprintf("📊 Total: %d files to delete", total))
		_ = s.emitter.Emit("🗑️ Starting deletion...")

		result := fsops.RemoveTree(norm, total, s.emitter.Emit)
		if result.Ok {
			msg := fmt.Sprintf("✅ Deleted %d files (100%%)", result.Deleted)
			_ = s.emitter.Emit(msg)
			_ = s.deps.Notifier.Notify(msg)
			s.respondOK("")
		} else {
			_ = s.emitter.Emit(fmt.Sprintf("❌ Failed to delete folder (%d files removed)", result.Deleted))
			s.respondError("")
		}
	}()
}

func (s *Session) handleRename(payload []byte) {
	oldPath, newPath, err := wire.SplitTwoPaths(payload)
	if err != nil {
		s.respondError("invalid rename request")
		return
	}
	if err := fsops.Rename(oldPath, newPath); err != nil {
		s.respondError("failed to rename")
		return
	}
	s.respondOK("renamed successfully")
}

func (s *Session) handleCopyFile(payload []byte) {
	src, dst, err := wire.SplitTwoPaths(payload)
	if err != nil {
		s.respondError("invalid copy request")
		return
	}
	if err := fsops.CopyFile(src, dst); err != nil {
		s.respondError("failed to copy file")
		return
	}
	s.respondOK("file copied")
}

func (s *Session) handleMoveFile(payload []byte) {
	// Identical semantics to RENAME in the source: rename(2) across the
	// two normalized paths, just a different response string.
	src, dst, err := wire.SplitTwoPaths(payload)
	if err != nil {
		s.respondError("invalid move request")
		return
	}
	if err := fsops.Rename(src, dst); err != nil {
		s.respondError("failed to move file")
		return
	}
	s.respondOK("file moved")
}

func (s *Session) handleStartUpload(payload []byte) {
	req, err := wire.ParseStartUpload(payload)
	if err != nil {
		s.respondError("invalid upload request")
		return
	}
	if err := netutil.BumpRecvBuffer(s.conn, netutil.BufferSize); err != nil {
		s.log.WithError(err).Debug("session: recv buffer bump failed")
	}
	if err := s.upload.Start(upload.Request{
		Path:        req.Path,
		TotalSize:   req.TotalSize,
		ChunkOffset: req.ChunkOffset,
	}); err != nil {
		s.respondError(err.Error())
		return
	}
	s.log.WithField("upload_id", s.upload.ID()).WithField("path", req.Path).Debug("session: upload started")
	_ = s.cw.WriteFrame(wire.RespReady, nil)
}

// handleUploadChunk sends no response on success, matching the source's
// "zero blocking for maximum speed" comment on handle_upload_chunk.
func (s *Session) handleUploadChunk(payload []byte) {
	if err := s.upload.WriteChunk(payload); err != nil {
		s.respondError(err.Error())
	}
}

func (s *Session) handleEndUpload() {
	if err := s.upload.End(); err != nil {
		s.respondError(err.Error())
		return
	}
	s.respondOK("upload complete")
}

func (s *Session) handleDownloadFile(payload []byte) {
	path, _, err := wire.SplitNulPath(payload)
	if err != nil {
		s.respondError("invalid download request")
		return
	}
	// download.Send sends its own ERROR frame for an open/stat failure
	// that happens before the size frame goes out; a failure after that
	// point can't be turned into a response the client would understand,
	// so there's nothing left to send here — only log it.
	lockErr := s.cw.WithLock(func(w io.Writer) error {
		return download.Send(w, path)
	})
	if lockErr != nil {
		s.log.WithError(lockErr).Debug("session: download failed")
	}
}

func (s *Session) handleShellExec(payload []byte) {
	if !s.shell.Active() {
		s.respondError("shell not open")
		return
	}
	line := string(payload)
	lockErr := s.cw.WithLock(func(w io.Writer) error {
		result := s.shell.Exec(line, func(p []byte) error {
			return wire.WriteFrame(w, wire.RespData, p)
		})
		op := wire.RespOK
		if !result.OK {
			op = wire.RespError
		}
		return wire.WriteFrame(w, op, []byte(result.Message))
	})
	if lockErr != nil {
		s.log.WithError(lockErr).Debug("session: shell exec failed")
	}
}

func (s *Session) handleIndexStart(payload []byte) {
	roots := strings.Split(string(payload), ",")
	for i := range roots {
		roots[i] = strings.TrimSpace(roots[i])
	}
	s.deps.Index.Start(roots)
	s.respondOK("Indexing started")
}

func (s *Session) handleIndexStatus() {
	indexing, ready, count := s.deps.Index.Status()
	state := "not started"
	switch {
	case indexing:
		state = "indexing"
	case ready:
		state = "ready"
	}
	s.respondOK(fmt.Sprintf("%s (%d entries)", state, count))
}

func (s *Session) handleSearchIndex(payload []byte) {
	query := string(payload)
	results, err := s.deps.Index.Search(query)
	if err != nil {
		s.respondError("index not ready")
		return
	}
	lockErr := s.cw.WithLock(func(w io.Writer) error {
		for _, e := range results {
			if err := wire.WriteFrame(w, wire.RespData, index.Pack(e)); err != nil {
				return err
			}
		}
		msg := fmt.Sprintf("Found %d results", len(results))
		return wire.WriteFrame(w, wire.RespOK, []byte(msg))
	})
	if lockErr != nil {
		s.log.WithError(lockErr).Debug("session: search failed")
	}
}
