package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is the persisted event record. The composite unique index on
// aggregate id and version is what enforces optimistic concurrency at
// the database level.
type Event struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	EventID       string     `gorm:"uniqueIndex;size:64"`
	AggregateID   string     `gorm:"uniqueIndex:idx_aggregate_version;size:64;index"`
	AggregateType string     `gorm:"size:32;index"`
	Version       int        `gorm:"uniqueIndex:idx_aggregate_version"`
	Type          string     `gorm:"size:64"`
	Data          []byte
	CorrelationID string     `gorm:"size:64"`
	CausationID   string     `gorm:"size:64"`
	Timestamp     time.Time
	Published     bool       `gorm:"index"`
	PublishedAt   *time.Time
	Error         *string
	CreatedAt     time.Time
}

// ProjectionCheckpoint tracks how far a catch-up processor has swept
// the event log.
type ProjectionCheckpoint struct {
	Name        string `gorm:"primaryKey;size:64"`
	LastEventID uint
	UpdatedAt   time.Time
}

// Migrate creates the event log and checkpoint tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&ProjectionCheckpoint{},
		&Project{},
		&OrgSummary{},
		&Template{},
		&Provisioning{},
		&AnalysisRun{},
	)
}
