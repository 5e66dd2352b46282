package notification

import (
	"context"
	"log/slog"
)

const (
	// KindRecordCreated indicates a subscriber record was created.
	KindRecordCreated = "record_created"
	// KindRecordDeleted indicates a subscriber record was removed.
	KindRecordDeleted = "record_deleted"
)

// Message describes a record lifecycle event.
type Message struct {
	Kind     string
	RecordID string
	Body     string
}

// Notifier delivers lifecycle events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes events to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "record_id", message.RecordID, "body", message.Body)
	return nil
}
