// Package notify is the notification collaborator boundary. The core
// invokes it after validation succeeds and knows nothing about delivery
// transport — a real deployment plugs in SMTP or a provider API here.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers a short message to an email recipient.
type Notifier interface {
	Send(ctx context.Context, recipientEmail, message string) error
}

// Log is the default Notifier: it records the notification instead of
// sending it. Useful in development and in tests.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a Notifier that writes to the given logger.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, recipientEmail, message string) error {
	l.logger.Info("notification",
		zap.String("recipient", recipientEmail),
		zap.String("message", message),
	)
	return nil
}
