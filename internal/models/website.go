package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebsiteStatus string

const (
	WebsiteRunning WebsiteStatus = "running"
	WebsiteStopped WebsiteStatus = "stopped"
	WebsiteError   WebsiteStatus = "error"
)

// Valid reports whether s is a known status.
func (s WebsiteStatus) Valid() bool {
	switch s {
	case WebsiteRunning, WebsiteStopped, WebsiteError:
		return true
	}
	return false
}

// Website is a site served from this host.
type Website struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UUID        string        `json:"uuid" gorm:"uniqueIndex"`
	Name        string        `json:"name" gorm:"not null"`
	Domain      string        `json:"domain" gorm:"not null;index"`
	Path        string        `json:"path" gorm:"not null"`
	Port        int           `json:"port"`
	SSLEnabled  bool          `json:"ssl_enabled" gorm:"default:false"`
	SSLCertPath string        `json:"ssl_cert_path,omitempty"`
	SSLKeyPath  string        `json:"ssl_key_path,omitempty"`
	Status      WebsiteStatus `json:"status" gorm:"default:'stopped'"`
	CreatedBy   uint          `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (w *Website) BeforeCreate(tx *gorm.DB) (err error) {
	if w.UUID == "" {
		w.UUID = uuid.New().String()
	}
	if w.Status == "" {
		w.Status = WebsiteStopped
	}
	return
}
