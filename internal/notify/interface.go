package notify

import "context"

// Event types
const (
	EventSuccess    = "on_success"
	EventFailure    = "on_failure"
	EventSkipped    = "on_skipped"
	EventRegression = "on_regression"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Notify(ctx context.Context, eventType, message string) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(ctx context.Context, eventType, message string) error { return nil }
