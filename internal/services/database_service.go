package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrDatabaseNotFound = errors.New("database not found")
	ErrDatabaseExists   = errors.New("database name already exists")
	ErrInvalidDatabase  = errors.New("invalid database")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

const (
	databaseListKey   = "listDatabases"
	minPasswordLength = 6
)

// CreateDatabaseInput is the admin request for a new managed database.
type CreateDatabaseInput struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

type DatabaseService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewDatabaseService(db *gorm.DB, c *cache.Cache) *DatabaseService {
	return &DatabaseService{db: db, cache: c}
}

func (s *DatabaseService) List() ([]models.Database, error) {
	return cache.Memoize(s.cache, databaseListKey, cache.DatabaseListTTL, nil, func() ([]models.Database, error) {
		var dbs []models.Database
		if err := s.db.Order("created_at desc").Find(&dbs).Error; err != nil {
			return nil, err
		}
		return dbs, nil
	})
}

func (s *DatabaseService) Create(in CreateDatabaseInput, createdBy uint) (*models.Database, error) {
	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	if name == "" || username == "" {
		return nil, fmt.Errorf("%w: name and username are required", ErrInvalidDatabase)
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if in.Port < 0 || in.Port > 65535 {
		return nil, fmt.Errorf("%w: port out of range", ErrInvalidDatabase)
	}

	var count int64
	if err := s.db.Model(&models.Database{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDatabaseExists
	}

	rec := &models.Database{
		Name:      name,
		Username:  username,
		Host:      strings.TrimSpace(in.Host),
		Port:      in.Port,
		CreatedBy: createdBy,
	}
	if rec.Host == "" {
		rec.Host = "localhost"
	}
	if rec.Port == 0 {
		rec.Port = 3306
	}
	if err := rec.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, err
	}
	s.invalidate()
	return rec, nil
}

func (s *DatabaseService) Delete(id uint) error {
	res := s.db.Delete(&models.Database{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDatabaseNotFound
	}
	s.invalidate()
	return nil
}

func (s *DatabaseService) invalidate() {
	s.cache.Clear(cache.Key(databaseListKey))
}
