package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, RespOK, []byte("PONG")))

	frame, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, RespOK, frame.Op)
	assert.Equal(t, []byte("PONG"), frame.Payload)
}

func TestWriteFrameZeroLength(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, OpPing, nil))
	assert.Equal(t, []byte{byte(OpPing), 0, 0, 0, 0}, buf.Bytes())
}

func TestReadFrameOversizedPayloadRejected(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.WriteByte(byte(OpUploadChunk))
	length := uint32(MaxPayload + 1)
	buf.Write([]byte{byte(length), byte(length >> 8), byte(length >> 16), byte(length >> 24)})
	_, err := ReadFrame(buf)
	assert.ErrorIs(t, err, ErrOversizedPayload)
}

func TestReadFrameShortHeaderIsEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	assert.Equal(t, err.Error(), "EOF")
}

func TestReadFrameTornHeaderIsError(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestSplitTwoPaths(t *testing.T) {
	data := append(append([]byte("/a/old.txt"), 0), []byte("/a/new.txt")...)
	first, second, err := SplitTwoPaths(data)
	require.NoError(t, err)
	assert.Equal(t, "/a/old.txt", first)
	assert.Equal(t, "/a/new.txt", second)
}

func TestSplitTwoPathsInvalid(t *testing.T) {
	_, _, err := SplitTwoPaths([]byte("noseparator"))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseStartUploadMinimalLength(t *testing.T) {
	data := append([]byte("/x\x00"), make([]byte, 8)...)
	req, err := ParseStartUpload(data)
	require.NoError(t, err)
	assert.Equal(t, "/x", req.Path)
	assert.Equal(t, uint64(0), req.ChunkOffset)
}

func TestParseStartUploadRejectsShortPayload(t *testing.T) {
	_, err := ParseStartUpload([]byte("/x\x00\x01\x02"))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseStartUploadWithOffset(t *testing.T) {
	data := append([]byte("/x\x00"), make([]byte, 16)...)
	data[3] = 100 // total_size low byte
	data[11] = 4  // chunk_offset low byte
	req, err := ParseStartUpload(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), req.TotalSize)
	assert.Equal(t, uint64(4), req.ChunkOffset)
}
