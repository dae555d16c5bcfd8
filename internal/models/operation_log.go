package models

import "time"

const (
	OperationSuccess = "success"
	OperationFailed  = "failed"
)

// OperationLog is one audit trail entry for an administrative action.
type OperationLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index"`
	Action     string    `json:"action" gorm:"not null;index"`
	Resource   string    `json:"resource" gorm:"not null"`
	ResourceID string    `json:"resource_id,omitempty"`
	Details    string    `json:"details,omitempty" gorm:"type:text"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Status     string    `json:"status" gorm:"default:'success'"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
