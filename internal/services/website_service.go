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
	ErrWebsiteNotFound      = errors.New("website not found")
	ErrInvalidWebsite       = errors.New("invalid website")
	ErrInvalidWebsiteStatus = errors.New("invalid website status")
)

const websiteListKey = "listWebsites"

type WebsiteService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewWebsiteService(db *gorm.DB, c *cache.Cache) *WebsiteService {
	return &WebsiteService{db: db, cache: c}
}

// WebsiteUpdate carries the mutable website fields; nil means unchanged.
type WebsiteUpdate struct {
	Name       *string               `json:"name"`
	Domain     *string               `json:"domain"`
	Status     *models.WebsiteStatus `json:"status"`
	SSLEnabled *bool                 `json:"ssl_enabled"`
}

// List returns all websites, newest first. Results are cached briefly.
func (s *WebsiteService) List() ([]models.Website, error) {
	return cache.Memoize(s.cache, websiteListKey, cache.WebsiteListTTL, nil, func() ([]models.Website, error) {
		var sites []models.Website
		if err := s.db.Order("created_at desc").Find(&sites).Error; err != nil {
			return nil, err
		}
		return sites, nil
	})
}

func (s *WebsiteService) GetByID(id uint) (*models.Website, error) {
	var site models.Website
	if err := s.db.First(&site, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebsiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

func (s *WebsiteService) Create(site *models.Website) error {
	site.Name = strings.TrimSpace(site.Name)
	site.Domain = strings.ToLower(strings.TrimSpace(site.Domain))
	site.Path = strings.TrimSpace(site.Path)
	if site.Name == "" || site.Domain == "" || site.Path == "" {
		return fmt.Errorf("%w: name, domain and path are required", ErrInvalidWebsite)
	}
	if site.Port < 0 || site.Port > 65535 {
		return fmt.Errorf("%w: port out of range", ErrInvalidWebsite)
	}
	if site.Status != "" && !site.Status.Valid() {
		return ErrInvalidWebsiteStatus
	}
	if err := s.db.Create(site).Error; err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *WebsiteService) Update(id uint, upd WebsiteUpdate) (*models.Website, error) {
	site, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidWebsite)
		}
		site.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Domain != nil {
		if strings.TrimSpace(*upd.Domain) == "" {
			return nil, fmt.Errorf("%w: domain cannot be empty", ErrInvalidWebsite)
		}
		site.Domain = strings.ToLower(strings.TrimSpace(*upd.Domain))
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, ErrInvalidWebsiteStatus
		}
		site.Status = *upd.Status
	}
	if upd.SSLEnabled != nil {
		site.SSLEnabled = *upd.SSLEnabled
	}

	if err := s.db.Save(site).Error; err != nil {
		return nil, err
	}
	s.invalidate()
	return site, nil
}

func (s *WebsiteService) Delete(id uint) error {
	res := s.db.Delete(&models.Website{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWebsiteNotFound
	}
	s.invalidate()
	return nil
}

func (s *WebsiteService) invalidate() {
	s.cache.Clear(cache.Key(websiteListKey))
}
