package models

import "time"

// File holds metadata for paths touched through the file manager.
type File struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Path        string    `json:"path" gorm:"uniqueIndex;not null"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mime_type,omitempty"`
	Permissions string    `json:"permissions,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	IsDirectory bool      `json:"is_directory"`
	ParentPath  string    `json:"parent_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
