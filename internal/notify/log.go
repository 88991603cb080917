package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log instead of a chat transport.
// Used in development and as the default wiring until a real transport is
// registered.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendToUser implements Notifier.
func (n *LogNotifier) SendToUser(_ context.Context, userID string, msg *Message) error {
	n.logger.Info("notify user", "user_id", userID, "message", msg.PlainText())
	return nil
}

// SendToChannel implements Notifier.
func (n *LogNotifier) SendToChannel(_ context.Context, channelID string, msg *Message) error {
	n.logger.Info("notify channel", "channel_id", channelID, "message", msg.PlainText())
	return nil
}
