package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrFirewallRuleNotFound = errors.New("firewall rule not found")
	ErrInvalidFirewallRule  = errors.New("invalid firewall rule")
)

type FirewallService struct {
	db *gorm.DB
}

func NewFirewallService(db *gorm.DB) *FirewallService {
	return &FirewallService{db: db}
}

func (s *FirewallService) List() ([]models.FirewallRule, error) {
	var rules []models.FirewallRule
	if err := s.db.Order("created_at desc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *FirewallService) Create(rule *models.FirewallRule) error {
	rule.Name = strings.TrimSpace(rule.Name)
	if rule.Protocol == "" {
		rule.Protocol = models.ProtocolTCP
	}
	if rule.Action == "" {
		rule.Action = models.ActionAllow
	}
	rule.SourceIP = strings.TrimSpace(rule.SourceIP)

	switch {
	case rule.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidFirewallRule)
	case rule.Port < 1 || rule.Port > 65535:
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidFirewallRule)
	case rule.Protocol != models.ProtocolTCP && rule.Protocol != models.ProtocolUDP && rule.Protocol != models.ProtocolBoth:
		return fmt.Errorf("%w: protocol must be tcp, udp or both", ErrInvalidFirewallRule)
	case rule.Action != models.ActionAllow && rule.Action != models.ActionDeny:
		return fmt.Errorf("%w: action must be allow or deny", ErrInvalidFirewallRule)
	}
	if rule.SourceIP != "" && !isValidIPOrCIDR(rule.SourceIP) {
		return ErrInvalidIPAddress
	}

	rule.Enabled = true
	return s.db.Create(rule).Error
}

// SetEnabled toggles a rule.
func (s *FirewallService) SetEnabled(id uint, enabled bool) error {
	res := s.db.Model(&models.FirewallRule{}).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFirewallRuleNotFound
	}
	return nil
}

func (s *FirewallService) Delete(id uint) error {
	res := s.db.Delete(&models.FirewallRule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFirewallRuleNotFound
	}
	return nil
}
