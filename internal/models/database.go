package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Database is a managed database instance. Only a bcrypt hash of the
// password is kept.
type Database struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"not null"`
	PasswordHash string    `json:"-"`
	Host         string    `json:"host" gorm:"default:'localhost'"`
	Port         int       `json:"port" gorm:"default:3306"`
	CreatedBy    uint      `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPassword hashes and sets the database password.
func (d *Database) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	d.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (d *Database) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)) == nil
}
