package models

import "time"

// Provisioning is the read model for a repository provisioning request
type Provisioning struct {
	ProvisioningID string    `gorm:"primaryKey;size:64" json:"provisioning_id"`
	ProjectID      string    `gorm:"size:64;index" json:"project_id"`
	RepoName       string    `gorm:"size:255" json:"repo_name"`
	Provider       string    `gorm:"size:32" json:"provider"`
	Visibility     string    `gorm:"size:16" json:"visibility"`
	RequestedBy    string    `gorm:"size:64" json:"requested_by"`
	WorkerID       string    `gorm:"size:64" json:"worker_id"`
	RepoURL        string    `gorm:"size:255" json:"repo_url"`
	DefaultBranch  string    `gorm:"size:64" json:"default_branch"`
	FailureReason  string    `json:"failure_reason"`
	Status         string    `gorm:"size:16;index" json:"status"`
	LastVersion    int       `json:"last_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
