// Package notify defines the delivery collaborator: something that can push
// a message to a user's direct channel or to a server channel. The chat
// transport (Discord or otherwise) implements this elsewhere; the core only
// depends on the interface and the failure taxonomy.
package notify

import (
	"context"
	"errors"
)

// Notifier delivers messages. Implementations return a *DeliveryError for
// delivery problems and reserve plain errors for context cancellation.
type Notifier interface {
	SendToUser(ctx context.Context, userID string, msg *Message) error
	SendToChannel(ctx context.Context, channelID string, msg *Message) error
}

// FailureKind splits delivery failures into the two classes the sweep cares
// about.
type FailureKind int

const (
	// Transient failures are logged and dropped; the chapter will surface
	// again next sweep. Never retried within the same sweep.
	Transient FailureKind = iota
	// Unreachable means the recipient blocked the bot or vanished. Terminal:
	// the owner is removed from future sweeps.
	Unreachable
)

// DeliveryError is a typed delivery failure.
type DeliveryError struct {
	Kind FailureKind
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return "delivery failed"
	}
	return e.Err.Error()
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsUnreachable reports whether err is a terminal delivery failure.
func IsUnreachable(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == Unreachable
}
