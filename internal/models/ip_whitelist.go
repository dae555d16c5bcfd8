package models

import "time"

// IPWhitelist entries bypass the ban gate. IPAddress is a single address or a CIDR.
type IPWhitelist struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	IPAddress   string    `json:"ip_address" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled" gorm:"default:true"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (IPWhitelist) TableName() string { return "ip_whitelist" }
