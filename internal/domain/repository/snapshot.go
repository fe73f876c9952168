package repository

import (
	"context"
	"tickler/internal/domain/entity"
)

// SnapshotStore defines the interface for persisting the reminder collection.
// The whole collection is written as one encoded blob under a single slot;
// there is no per-item persistence.
type SnapshotStore interface {
	// Save overwrites the persisted slot with the given collection.
	Save(ctx context.Context, reminders []*entity.Reminder) error
	// Load returns the persisted collection. A missing slot or an
	// undecodable blob yields an empty collection, not an error.
	Load(ctx context.Context) ([]*entity.Reminder, error)
}
