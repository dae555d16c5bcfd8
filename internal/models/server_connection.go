package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuthTypePassword = "password"
	AuthTypeKey      = "key"

	ServerConnected    = "connected"
	ServerDisconnected = "disconnected"
	ServerError        = "error"
)

// ServerConnection is a remote deployment target reached over SSH.
// Credentials are never serialized.
type ServerConnection struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UUID           string     `json:"uuid" gorm:"uniqueIndex"`
	Name           string     `json:"name" gorm:"not null"`
	Host           string     `json:"host" gorm:"not null"`
	Port           int        `json:"port" gorm:"default:22"`
	Username       string     `json:"username" gorm:"not null"`
	AuthType       string     `json:"auth_type" gorm:"default:'password'"`
	Password       string     `json:"-"`
	PrivateKey     string     `json:"-" gorm:"type:text"`
	KeyFingerprint string     `json:"key_fingerprint,omitempty"`
	Status         string     `json:"status" gorm:"default:'disconnected'"`
	LastConnected  *time.Time `json:"last_connected,omitempty"`
	Description    string     `json:"description,omitempty"`
	CreatedBy      uint       `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *ServerConnection) BeforeCreate(tx *gorm.DB) (err error) {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	return
}
