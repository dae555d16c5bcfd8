package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/logger"
	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrProviderNotFound     = errors.New("notification provider not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationService stores in-panel notifications and fans events out to
// external providers through shoutrrr or plain JSON webhooks.
type NotificationService struct {
	DB *gorm.DB

	client *http.Client
	send   func(url, message string) error
	wg     sync.WaitGroup
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		DB: db,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		send: func(url, message string) error { return shoutrrr.Send(url, message) },
	}
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

func normalizeURL(serviceType, rawURL string) string {
	if serviceType == "discord" {
		matches := discordWebhookRegex.FindStringSubmatch(rawURL)
		if len(matches) == 3 {
			return fmt.Sprintf("discord://%s@%s", matches[2], matches[1])
		}
	}
	return rawURL
}

// Internal Notifications (DB)

func (s *NotificationService) Create(nType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		Type:    nType,
		Title:   title,
		Message: message,
	}
	result := s.DB.Create(notification)
	return notification, result.Error
}

func (s *NotificationService) List(unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(id string) error {
	res := s.DB.Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead() error {
	return s.DB.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}

// Notify records an in-panel notification and forwards it to every enabled
// provider subscribed to eventType. Delivery happens in the background.
func (s *NotificationService) Notify(eventType string, nType models.NotificationType, title, message string) {
	if _, err := s.Create(nType, title, message); err != nil {
		logger.Log().WithError(err).Warn("failed to store notification")
	}
	s.SendExternal(eventType, title, message)
}

// External Notifications (Shoutrrr & Webhooks)

func (s *NotificationService) SendExternal(eventType, title, message string) {
	var providers []models.NotificationProvider
	if err := s.DB.Where("enabled = ?", true).Find(&providers).Error; err != nil {
		logger.Log().WithError(err).Error("failed to fetch notification providers")
		return
	}

	for _, provider := range providers {
		if !provider.Wants(eventType) {
			continue
		}
		s.wg.Add(1)
		go func(p models.NotificationProvider) {
			defer s.wg.Done()
			if err := s.deliver(p, eventType, title, message); err != nil {
				logger.Log().WithError(err).WithField("provider", p.Name).Warn("notification delivery failed")
			}
		}(provider)
	}
}

// Wait blocks until in-flight deliveries have finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) deliver(p models.NotificationProvider, eventType, title, message string) error {
	if p.Type == "webhook" {
		return s.sendWebhook(p, eventType, title, message)
	}
	url := normalizeURL(p.Type, p.URL)
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if _, err := validateWebhookURL(url); err != nil {
			return err
		}
	}
	return s.send(url, fmt.Sprintf("%s\n\n%s", title, message))
}

type webhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Event   string `json:"event"`
	Time    string `json:"time"`
}

func (s *NotificationService) sendWebhook(p models.NotificationProvider, eventType, title, message string) error {
	u, err := validateWebhookURL(p.URL)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}

	body, err := json.Marshal(webhookPayload{
		Title:   title,
		Message: message,
		Event:   eventType,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

// isPrivateIP returns true for RFC1918, loopback and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// validateWebhookURL rejects non-http schemes and hosts resolving to private
// addresses. Literal loopback hosts are allowed for local testing.
func validateWebhookURL(raw string) (*neturl.URL, error) {
	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return u, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("disallowed host IP: %s", ip.String())
		}
	}
	return u, nil
}

func (s *NotificationService) TestProvider(provider models.NotificationProvider) error {
	return s.deliver(provider, models.EventTest, "Test Notification", "This is a test notification from HostDeck")
}

// Provider Management

func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	result := s.DB.Order("created_at desc").Find(&providers)
	return providers, result.Error
}

func (s *NotificationService) CreateProvider(provider *models.NotificationProvider) error {
	if strings.TrimSpace(provider.Name) == "" || strings.TrimSpace(provider.URL) == "" {
		return fmt.Errorf("name and url are required")
	}
	return s.DB.Create(provider).Error
}

// UpdateProvider overwrites the editable fields of an existing provider.
func (s *NotificationService) UpdateProvider(provider *models.NotificationProvider) error {
	res := s.DB.Model(provider).
		Select("name", "type", "url", "enabled", "notify_security", "notify_deployments", "notify_servers").
		Updates(provider)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProviderNotFound
	}
	return nil
}

func (s *NotificationService) DeleteProvider(id string) error {
	return s.DB.Delete(&models.NotificationProvider{}, "id = ?", id).Error
}
