// Package notify defines the host notification sink: a narrow interface
// standing in for sceKernelSendNotificationRequest, the console-OS kernel
// call the source used to surface a system toast when a long-running
// operation finished. The host integration itself is out of scope; this
// package only gives it somewhere to plug in.
package notify

import "github.com/sirupsen/logrus"

// Notifier delivers a short, human-readable message to whatever presents
// it to the operator. Implementations must not block the caller for long:
// send_notification in the source is fire-and-forget.
type Notifier interface {
	Notify(message string) error
}

// LoggingNotifier is a Notifier that logs the message instead of
// delivering it anywhere, standing in for the real host integration until
// one is wired up.
type LoggingNotifier struct {
	Log *logrus.Logger
}

// NewLoggingNotifier returns a Notifier backed by log.
func NewLoggingNotifier(log *logrus.Logger) *LoggingNotifier {
	return &LoggingNotifier{Log: log}
}

// Notify logs message at info level and always succeeds.
func (n *LoggingNotifier) Notify(message string) error {
	n.Log.WithField("component", "notify").Info(message)
	return nil
}
