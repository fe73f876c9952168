package service

import (
	"time"

	"tickler/internal/domain/entity"
)

// EventKind identifies why the gateway delivered an event.
type EventKind int

const (
	// EventFired means the scheduled notification reached its trigger time.
	EventFired EventKind = iota
	// EventUserActed means the user acted on the notification surface.
	EventUserActed
)

// ActionKind identifies the user action carried by an EventUserActed event.
type ActionKind int

const (
	// ActionComplete marks the reminder complete from the notification.
	ActionComplete ActionKind = iota
)

// GatewayEvent is delivered asynchronously by the gateway when a scheduled
// notification fires or the user acts on it. CorrelationID is the reminder
// ID the engine passed to Schedule.
type GatewayEvent struct {
	CorrelationID string
	Kind          EventKind
	Action        ActionKind
}

// NotificationGateway defines the interface to the notification delivery
// system. Implementations must fail closed: a denied permission is reported
// as errors.ErrNotPermitted, never as a panic or a fatal error, so the
// engine's mutation can proceed without a handle.
type NotificationGateway interface {
	// Schedule registers a notification to fire at fireAt (minute
	// resolution) and returns the handle identifying it.
	Schedule(fireAt time.Time, title, body, correlationID string) (entity.Handle, error)
	// Cancel drops an outstanding notification. Unknown, fired or
	// already-cancelled handles are no-ops.
	Cancel(handle entity.Handle)
	// CancelMany drops a batch of outstanding notifications.
	CancelMany(handles []entity.Handle)
	// Events returns the channel on which Fired and UserActed events are
	// delivered. The engine drains it from a single goroutine.
	Events() <-chan GatewayEvent
	// Stop shuts the gateway down and closes the event channel.
	Stop()
}
