package models

import "time"

// AnalysisRun is the read model for a code analysis run
type AnalysisRun struct {
	AnalysisID    string    `gorm:"primaryKey;size:64" json:"analysis_id"`
	ProjectID     string    `gorm:"size:64;index" json:"project_id"`
	AnalysisType  string    `gorm:"size:32" json:"analysis_type"`
	RequestedBy   string    `gorm:"size:64" json:"requested_by"`
	WorkerID      string    `gorm:"size:64" json:"worker_id"`
	Model         string    `gorm:"size:64" json:"model"`
	FindingsCount int       `json:"findings_count"`
	Summary       string    `json:"summary"`
	FailureReason string    `json:"failure_reason"`
	Status        string    `gorm:"size:16;index" json:"status"`
	LastVersion   int       `json:"last_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
