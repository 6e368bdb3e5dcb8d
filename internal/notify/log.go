package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes events to the application log. It stands in for mail
// delivery; the payload (which can hold reset links) is logged at debug level only.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.log.Info("notification",
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.Type),
		zap.String("recipient", ev.Recipient),
	)
	n.log.Debug("notification payload", zap.String("event_id", ev.ID), zap.Any("payload", ev.Payload))
	return nil
}

func (n *LogNotifier) Close() error { return nil }
