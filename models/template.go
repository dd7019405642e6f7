package models

import "time"

// Template is the read model for a scaffolding template
type Template struct {
	TemplateID  string    `gorm:"primaryKey;size:64" json:"template_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `json:"description"`
	SourceRepo  string    `gorm:"size:255" json:"source_repo"`
	OwnerID     string    `gorm:"size:64;index" json:"owner_id"`
	SemVer      string    `gorm:"size:32" json:"sem_ver"`
	ContentHash string    `gorm:"size:128" json:"content_hash"`
	Status      string    `gorm:"size:16;index" json:"status"`
	LastVersion int       `json:"last_version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
