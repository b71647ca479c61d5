package download

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manos-filed/filed/internal/wire"
)

func TestSendWritesSizeHeaderThenBody(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "file.bin")
	content := []byte("the quick brown fox")
	require.NoError(t, os.WriteFile(path, content, 0600))

	var out bytes.Buffer
	require.NoError(t, Send(&out, path))

	frame, err := wire.ReadFrame(&out)
	require.NoError(t, err)
	assert.Equal(t, wire.RespData, frame.Op)
	assert.Equal(t, uint64(len(content)), binary.LittleEndian.Uint64(frame.Payload))

	remaining := out.Bytes()
	assert.Equal(t, content, remaining)
}

func TestSendMissingFileErrors(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	err := Send(&out, filepath.Join(root, "missing"))
	assert.Error(t, err)

	frame, frameErr := wire.ReadFrame(&out)
	require.NoError(t, frameErr)
	assert.Equal(t, wire.RespError, frame.Op)
}

func TestSendEmptyFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	var out bytes.Buffer
	require.NoError(t, Send(&out, path))

	frame, err := wire.ReadFrame(&out)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(frame.Payload))
	assert.Empty(t, out.Bytes())
}
