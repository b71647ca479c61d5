package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manos-filed/filed/internal/lockreg"
)

func TestStartWriteEndRoundTrip(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "file.bin")

	reg := lockreg.New()
	s := NewSession(reg)

	require.NoError(t, s.Start(Request{Path: target, TotalSize: 11}))
	assert.Equal(t, StateOpen, s.State())

	require.NoError(t, s.WriteChunk([]byte("hello ")))
	require.NoError(t, s.WriteChunk([]byte("world")))
	assert.Equal(t, uint64(11), s.Received())

	require.NoError(t, s.End())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, reg.Len())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestWriteChunkWithNoStartFails(t *testing.T) {
	s := NewSession(lockreg.New())
	err := s.WriteChunk([]byte("x"))
	assert.Error(t, err)
}

func TestEndWithNoStartFails(t *testing.T) {
	s := NewSession(lockreg.New())
	err := s.End()
	assert.Error(t, err)
}

func TestStartAbandonsPreviouslyOpenUpload(t *testing.T) {
	root := t.TempDir()
	reg := lockreg.New()
	s := NewSession(reg)

	first := filepath.Join(root, "first.bin")
	second := filepath.Join(root, "second.bin")

	require.NoError(t, s.Start(Request{Path: first, TotalSize: 5}))
	require.NoError(t, s.WriteChunk([]byte("aaaaa")))

	require.NoError(t, s.Start(Request{Path: second, TotalSize: 5}))
	assert.Equal(t, 1, reg.Len()) // first's handle released, second's acquired

	require.NoError(t, s.WriteChunk([]byte("bbbbb")))
	require.NoError(t, s.End())
}

func TestChunkOffsetResumesExistingFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "resume.bin")
	require.NoError(t, os.WriteFile(target, []byte("AAAAAAAAAA"), 0600))

	reg := lockreg.New()
	s := NewSession(reg)
	require.NoError(t, s.Start(Request{Path: target, TotalSize: 10, ChunkOffset: 5}))
	assert.Equal(t, uint64(5), s.Received())

	require.NoError(t, s.WriteChunk([]byte("BBBBB")))
	require.NoError(t, s.End())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "AAAAABBBBB", string(got))
}

func TestPreallocationAppliesAboveLargeFileThreshold(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "huge.bin")

	reg := lockreg.New()
	s := NewSession(reg)
	const big = 200 * 1024 * 1024
	require.NoError(t, s.Start(Request{Path: target, TotalSize: big}))
	require.NoError(t, s.WriteChunk([]byte("start")))
	require.NoError(t, s.End())

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Size(), int64(big))
}

func TestConcurrentSessionsToDistinctFilesDontBlock(t *testing.T) {
	root := t.TempDir()
	reg := lockreg.New()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		i := i
		go func() {
			s := NewSession(reg)
			path := filepath.Join(root, "file", string(rune('a'+i)))
			os.MkdirAll(filepath.Dir(path), 0777)
			if err := s.Start(Request{Path: path, TotalSize: 4}); err != nil {
				done <- err
				return
			}
			if err := s.WriteChunk([]byte("data")); err != nil {
				done <- err
				return
			}
			done <- s.End()
		}()
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}
}
