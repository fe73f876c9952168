package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tickler/internal/domain/entity"
	"tickler/internal/domain/repository"
	appErrors "tickler/internal/pkg/errors"
	"tickler/internal/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reminderSlot names the single persisted slot holding the collection.
const reminderSlot = "reminders"

// snapshotModel is one keyed slot holding an encoded collection blob.
type snapshotModel struct {
	Slot      string    `gorm:"primaryKey;column:slot"`
	Data      []byte    `gorm:"column:data"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the snapshot slots.
func (snapshotModel) TableName() string {
	return "snapshots"
}

type snapshotStore struct {
	db  *gorm.DB
	log logger.Logger
}

// NewSnapshotStore creates a SnapshotStore backed by a single SQLite row.
// The collection is stored as one JSON blob; the encoding is internal and
// versionless.
func NewSnapshotStore(db *gorm.DB, log logger.Logger) repository.SnapshotStore {
	return &snapshotStore{db: db, log: log}
}

// Save overwrites the reminder slot with the encoded collection.
func (s *snapshotStore) Save(ctx context.Context, reminders []*entity.Reminder) error {
	data, err := json.Marshal(reminders)
	if err != nil {
		return fmt.Errorf("%w: failed to encode reminder snapshot: %v", appErrors.ErrPersistence, err)
	}
	row := snapshotModel{Slot: reminderSlot, Data: data, UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: failed to write reminder snapshot: %v", appErrors.ErrPersistence, err)
	}
	return nil
}

// Load reads the reminder slot. An absent slot or an undecodable blob is
// treated as empty prior state, never as a failure.
func (s *snapshotStore) Load(ctx context.Context) ([]*entity.Reminder, error) {
	var row snapshotModel
	if err := s.db.WithContext(ctx).First(&row, "slot = ?", reminderSlot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read reminder snapshot: %v", appErrors.ErrPersistence, err)
	}

	var reminders []*entity.Reminder
	if err := json.Unmarshal(row.Data, &reminders); err != nil {
		s.log.Error("Reminder snapshot is corrupt, starting with empty state", err)
		return nil, nil
	}
	return reminders, nil
}
