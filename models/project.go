package models

import "time"

// Project is the read model for a scaffolded project. LastVersion is
// the version of the most recent event folded into this row and makes
// redeliveries idempotent.
type Project struct {
	ProjectID      string    `gorm:"primaryKey;size:64" json:"project_id"`
	Name           string    `gorm:"size:255" json:"name"`
	Description    string    `json:"description"`
	OwnerID        string    `gorm:"size:64;index" json:"owner_id"`
	OrganizationID string    `gorm:"size:64;index" json:"organization_id"`
	TemplateID     string    `gorm:"size:64" json:"template_id"`
	Status         string    `gorm:"size:16;index" json:"status"`
	LastVersion    int       `json:"last_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrgSummary is an aggregated read model counting projects per
// organization. It is recomputed from the project rows on every
// update, which keeps it correct under redelivery.
type OrgSummary struct {
	OrganizationID   string    `gorm:"primaryKey;size:64" json:"organization_id"`
	ActiveProjects   int64     `json:"active_projects"`
	ArchivedProjects int64     `json:"archived_projects"`
	UpdatedAt        time.Time `json:"updated_at"`
}
