package entity

import "time"

// Handle is an opaque reference to a notification the gateway has scheduled
// but not yet fired or cancelled.
type Handle int64

// Reminder represents a single reminder item owned by the engine.
type Reminder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FireAt    time.Time `json:"fire_at"`
	Completed bool      `json:"completed"`
	// NotificationHandle is non-nil only while a gateway notification is
	// outstanding for this reminder: scheduled for a future time, not yet
	// fired, not yet cancelled.
	NotificationHandle *Handle `json:"notification_handle,omitempty"`
	// NotifyDenied records that the gateway refused to schedule because
	// notification permission was not granted. The reminder still exists;
	// it just never fires.
	NotifyDenied bool `json:"notify_denied,omitempty"`
}

// Scheduled reports whether a gateway notification is outstanding.
func (r *Reminder) Scheduled() bool {
	return r.NotificationHandle != nil
}

// Clone returns a copy that is safe to hand outside the engine.
func (r *Reminder) Clone() *Reminder {
	c := *r
	if r.NotificationHandle != nil {
		h := *r.NotificationHandle
		c.NotificationHandle = &h
	}
	return &c
}
