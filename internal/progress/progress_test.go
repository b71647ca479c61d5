package progress

import (
	"testing"
	"time"

	"github.com/manos-filed/filed/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	frames []string
}

func (r *recordingWriter) WriteFrame(op wire.Opcode, payload []byte) error {
	require := op == wire.RespProgress
	_ = require
	r.frames = append(r.frames, string(payload))
	return nil
}

func TestEmitterWritesProgressFrames(t *testing.T) {
	rw := &recordingWriter{}
	e := NewEmitter(rw)
	require.NoError(t, e.Emit("scanning"))
	require.NoError(t, e.Emit("scanning more"))
	assert.Equal(t, []string{"scanning", "scanning more"}, rw.frames)
}

func TestThrottleFiresOnCount(t *testing.T) {
	th := NewThrottle(3, time.Hour)
	assert.False(t, th.Tick())
	assert.False(t, th.Tick())
	assert.True(t, th.Tick())
	assert.False(t, th.Tick())
}

func TestThrottleFiresOnInterval(t *testing.T) {
	now := time.Now()
	th := NewThrottle(1000, time.Second)
	th.now = func() time.Time { return now }
	assert.False(t, th.Tick())
	th.now = func() time.Time { return now.Add(2 * time.Second) }
	assert.True(t, th.Tick())
}
