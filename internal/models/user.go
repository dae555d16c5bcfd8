package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a panel account. Identity comes from the external session provider,
// keyed by OpenID; the panel never stores credentials for it.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OpenID       string    `json:"open_id" gorm:"uniqueIndex;size:64;not null"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LoginMethod  string    `json:"login_method"`
	Role         string    `json:"role" gorm:"default:'user'"` // "admin", "user"
	LastSignedIn time.Time `json:"last_signed_in"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
