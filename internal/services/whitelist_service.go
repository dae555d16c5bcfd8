package services

import (
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrWhitelistNotFound = errors.New("whitelist entry not found")
	ErrWhitelistExists   = errors.New("ip address already whitelisted")
	ErrInvalidIPAddress  = errors.New("invalid IP address or CIDR")
)

type WhitelistService struct {
	db *gorm.DB
}

func NewWhitelistService(db *gorm.DB) *WhitelistService {
	return &WhitelistService{db: db}
}

func (s *WhitelistService) List() ([]models.IPWhitelist, error) {
	var entries []models.IPWhitelist
	if err := s.db.Order("created_at desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *WhitelistService) Create(entry *models.IPWhitelist) error {
	entry.IPAddress = strings.TrimSpace(entry.IPAddress)
	if !isValidIPOrCIDR(entry.IPAddress) {
		return ErrInvalidIPAddress
	}

	var count int64
	if err := s.db.Model(&models.IPWhitelist{}).Where("ip_address = ?", entry.IPAddress).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrWhitelistExists
	}

	entry.Enabled = true
	return s.db.Create(entry).Error
}

func (s *WhitelistService) Delete(id uint) error {
	res := s.db.Delete(&models.IPWhitelist{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWhitelistNotFound
	}
	return nil
}

// IsWhitelisted reports whether ip matches an enabled entry, either exactly
// or by CIDR containment.
func (s *WhitelistService) IsWhitelisted(ip string) (bool, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return false, nil
	}

	var entries []models.IPWhitelist
	if err := s.db.Where("enabled = ?", true).Find(&entries).Error; err != nil {
		return false, err
	}
	for _, e := range entries {
		if strings.Contains(e.IPAddress, "/") {
			if _, network, err := net.ParseCIDR(e.IPAddress); err == nil && network.Contains(addr) {
				return true, nil
			}
			continue
		}
		if other := net.ParseIP(e.IPAddress); other != nil && other.Equal(addr) {
			return true, nil
		}
	}
	return false, nil
}

func isValidIPOrCIDR(s string) bool {
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}
