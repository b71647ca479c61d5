package notify

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingNotifierNeverErrors(t *testing.T) {
	log := logrus.New()
	n := NewLoggingNotifier(log)
	require.NoError(t, n.Notify("deleted 100 files"))
}

func TestLoggingNotifierSatisfiesInterface(t *testing.T) {
	var _ Notifier = (*LoggingNotifier)(nil)
	assert.True(t, true)
}
