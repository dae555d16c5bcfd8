package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationProvider is an external alert destination: a shoutrrr URL or a
// plain JSON webhook.
type NotificationProvider struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"` // discord, slack, gotify, telegram, generic, webhook
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`

	// Notification Preferences
	NotifySecurity    bool `json:"notify_security" gorm:"default:true"`
	NotifyDeployments bool `json:"notify_deployments" gorm:"default:true"`
	NotifyServers     bool `json:"notify_servers" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *NotificationProvider) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}

// Wants reports whether the provider subscribes to eventType.
func (n *NotificationProvider) Wants(eventType string) bool {
	switch eventType {
	case EventSecurity:
		return n.NotifySecurity
	case EventDeployment:
		return n.NotifyDeployments
	case EventServer:
		return n.NotifyServers
	default:
		return true
	}
}
