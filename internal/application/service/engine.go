package service

import (
	"context"
	"time"

	"tickler/internal/domain/entity"
)

// Engine defines the interface for the reminder lifecycle engine. It owns
// the in-memory reminder collection; all mutations go through it.
type Engine interface {
	// Initialize loads the persisted collection and starts consuming
	// gateway events. Missing or corrupt state yields an empty collection;
	// Initialize never fails fatally.
	Initialize(ctx context.Context) error
	// Create adds a new reminder. A notification is scheduled only when
	// fireAt is strictly in the future.
	Create(ctx context.Context, title string, fireAt time.Time) (*entity.Reminder, error)
	// Toggle flips the completed flag. Completing a reminder cancels its
	// outstanding notification; un-completing never re-schedules one.
	Toggle(ctx context.Context, id string) (*entity.Reminder, error)
	// Delete removes a reminder, cancelling its outstanding notification.
	Delete(ctx context.Context, id string) error
	// DeleteMany removes every matched reminder; unmatched IDs are ignored.
	DeleteMany(ctx context.Context, ids []string) error
	// HandleGatewayEvent marks the reminder identified by correlationID
	// complete. Unknown IDs are ignored; the call is idempotent.
	HandleGatewayEvent(ctx context.Context, correlationID string)
	// List returns copies of all reminders, in no particular order.
	List(ctx context.Context) []*entity.Reminder
	// Subscribe registers a callback invoked after every collection change
	// and returns a function that removes the registration.
	Subscribe(fn func()) (unsubscribe func())
	// Close stops the gateway event pump.
	Close()
}
