package dto

import (
	"time"

	"tickler/internal/domain/entity"
)

// ReminderResponse is the DTO for sending reminder information to the client.
type ReminderResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	FireAt       time.Time `json:"fire_at"`
	Completed    bool      `json:"completed"`
	Scheduled    bool      `json:"scheduled"`
	NotifyDenied bool      `json:"notify_denied,omitempty"`
}

// ToReminderResponse converts an entity.Reminder to a ReminderResponse DTO.
// The notification handle itself is never exposed, only its presence.
func ToReminderResponse(r *entity.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:           r.ID,
		Title:        r.Title,
		FireAt:       r.FireAt,
		Completed:    r.Completed,
		Scheduled:    r.Scheduled(),
		NotifyDenied: r.NotifyDenied,
	}
}

// ToReminderResponseList converts a slice of entity.Reminder to DTOs.
func ToReminderResponseList(reminders []*entity.Reminder) []ReminderResponse {
	list := make([]ReminderResponse, len(reminders))
	for i, r := range reminders {
		list[i] = ToReminderResponse(r)
	}
	return list
}

// CreateReminderRequest is the DTO for creating a new reminder.
type CreateReminderRequest struct {
	Title  string    `json:"title"`
	FireAt time.Time `json:"fire_at"`
}

// DeleteManyRequest is the DTO for bulk deletion.
type DeleteManyRequest struct {
	IDs []string `json:"ids"`
}
