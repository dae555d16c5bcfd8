package models

import "time"

const (
	DeployPending = "pending"
	DeployRunning = "running"
	DeploySuccess = "success"
	DeployFailed  = "failed"
)

type DeploymentHistory struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	ServerID     uint       `json:"server_id" gorm:"index;not null"`
	DeployType   string     `json:"deploy_type" gorm:"not null"`
	Status       string     `json:"status" gorm:"default:'pending'"`
	Command      string     `json:"command,omitempty" gorm:"type:text"`
	Output       string     `json:"output,omitempty" gorm:"type:text"`
	ErrorMessage string     `json:"error_message,omitempty" gorm:"type:text"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedBy    uint       `json:"created_by"`
}

func (DeploymentHistory) TableName() string { return "deployment_history" }
