package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/logger"
	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrServerNotFound    = errors.New("server not found")
	ErrInvalidServer     = errors.New("invalid server connection")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidDeployment = errors.New("invalid deployment")
)

const (
	connectTimeout       = 5 * time.Second
	defaultDeployDelay   = 2 * time.Second
	deploymentOutput     = "deployment completed"
	deploymentHistoryMax = 100
)

// Notifier receives deployment and server events.
type Notifier interface {
	Notify(eventType string, nType models.NotificationType, title, message string)
}

// DialFunc opens a TCP connection. net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// CreateServerInput is the admin request for a new deployment target.
type CreateServerInput struct {
	Name        string `json:"name" binding:"required"`
	Host        string `json:"host" binding:"required"`
	Port        int    `json:"port"`
	Username    string `json:"username" binding:"required"`
	AuthType    string `json:"auth_type"`
	Password    string `json:"password"`
	PrivateKey  string `json:"private_key"`
	Description string `json:"description"`
}

// ConnectionResult reports the outcome of TestConnection.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeploymentService manages remote servers and deployment runs. Remote
// execution is simulated: a run completes after a fixed delay.
type DeploymentService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier Notifier
	dial     DialFunc
	delay    time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

type DeploymentOption func(*DeploymentService)

func WithDialer(d DialFunc) DeploymentOption {
	return func(s *DeploymentService) { s.dial = d }
}

func WithDeployDelay(d time.Duration) DeploymentOption {
	return func(s *DeploymentService) { s.delay = d }
}

func WithNotifier(n Notifier) DeploymentOption {
	return func(s *DeploymentService) { s.notifier = n }
}

func NewDeploymentService(db *gorm.DB, audit *AuditService, opts ...DeploymentOption) *DeploymentService {
	d := &net.Dialer{}
	s := &DeploymentService{
		db:    db,
		audit: audit,
		dial:  d.DialContext,
		delay: defaultDeployDelay,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DeploymentService) ListServers() ([]models.ServerConnection, error) {
	var servers []models.ServerConnection
	if err := s.db.Order("created_at desc").Find(&servers).Error; err != nil {
		return nil, err
	}
	return servers, nil
}

func (s *DeploymentService) GetServer(id uint) (*models.ServerConnection, error) {
	var server models.ServerConnection
	if err := s.db.First(&server, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, err
	}
	return &server, nil
}

func (s *DeploymentService) CreateServer(in CreateServerInput, createdBy uint) (*models.ServerConnection, error) {
	server := &models.ServerConnection{
		Name:        strings.TrimSpace(in.Name),
		Host:        strings.TrimSpace(in.Host),
		Port:        in.Port,
		Username:    strings.TrimSpace(in.Username),
		AuthType:    in.AuthType,
		Password:    in.Password,
		Description: in.Description,
		Status:      models.ServerDisconnected,
		CreatedBy:   createdBy,
	}
	if server.Port == 0 {
		server.Port = 22
	}
	if server.AuthType == "" {
		server.AuthType = models.AuthTypePassword
	}

	switch {
	case server.Name == "" || server.Host == "" || server.Username == "":
		return nil, fmt.Errorf("%w: name, host and username are required", ErrInvalidServer)
	case server.Port < 1 || server.Port > 65535:
		return nil, fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidServer)
	}

	switch server.AuthType {
	case models.AuthTypePassword:
	case models.AuthTypeKey:
		fp, err := KeyFingerprint(in.PrivateKey)
		if err != nil {
			return nil, err
		}
		server.PrivateKey = in.PrivateKey
		server.KeyFingerprint = fp
		server.Password = ""
	default:
		return nil, fmt.Errorf("%w: auth_type must be password or key", ErrInvalidServer)
	}

	if err := s.db.Create(server).Error; err != nil {
		return nil, err
	}
	return server, nil
}

// KeyFingerprint parses a PEM private key and returns the SHA256 fingerprint
// of its public half. Passphrase-protected keys are rejected.
func KeyFingerprint(pemKey string) (string, error) {
	if strings.TrimSpace(pemKey) == "" {
		return "", fmt.Errorf("%w: key is required for key authentication", ErrInvalidPrivateKey)
	}
	signer, err := ssh.ParsePrivateKey([]byte(pemKey))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return ssh.FingerprintSHA256(signer.PublicKey()), nil
}

func (s *DeploymentService) DeleteServer(id uint) error {
	res := s.db.Delete(&models.ServerConnection{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrServerNotFound
	}
	return nil
}

// TestConnection checks that the server's SSH port accepts TCP connections
// and records the outcome on the server row.
func (s *DeploymentService) TestConnection(ctx context.Context, id uint) (*ConnectionResult, error) {
	server, err := s.GetServer(id)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	addr := net.JoinHostPort(server.Host, strconv.Itoa(server.Port))
	conn, dialErr := s.dial(dialCtx, "tcp", addr)

	updates := map[string]interface{}{}
	result := &ConnectionResult{}
	if dialErr != nil {
		updates["status"] = models.ServerError
		result.Message = fmt.Sprintf("connection to %s failed: %v", addr, dialErr)
	} else {
		_ = conn.Close()
		now := s.now()
		updates["status"] = models.ServerConnected
		updates["last_connected"] = &now
		result.Success = true
		result.Message = fmt.Sprintf("connection to %s succeeded", addr)
	}

	if err := s.db.Model(server).Updates(updates).Error; err != nil {
		return nil, err
	}
	if !result.Success && s.notifier != nil {
		s.notifier.Notify(models.EventServer, models.NotificationTypeWarning, "Server unreachable", fmt.Sprintf("%s (%s): %s", server.Name, addr, result.Message))
	}
	return result, nil
}

// Deploy records a running deployment and completes it in the background.
func (s *DeploymentService) Deploy(ctx context.Context, serverID uint, deployType, command string, userID uint) (*models.DeploymentHistory, error) {
	deployType = strings.TrimSpace(deployType)
	if deployType == "" {
		return nil, fmt.Errorf("%w: deploy_type is required", ErrInvalidDeployment)
	}
	server, err := s.GetServer(serverID)
	if err != nil {
		return nil, err
	}

	run := &models.DeploymentHistory{
		ServerID:   server.ID,
		DeployType: deployType,
		Status:     models.DeployRunning,
		Command:    command,
		StartedAt:  s.now(),
		CreatedBy:  userID,
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.complete(run.ID, server, userID)
	return run, nil
}

func (s *DeploymentService) complete(runID uint, server *models.ServerConnection, userID uint) {
	defer s.wg.Done()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	now := s.now()
	err := s.db.Model(&models.DeploymentHistory{}).Where("id = ?", runID).Updates(map[string]interface{}{
		"status":       models.DeploySuccess,
		"output":       deploymentOutput,
		"completed_at": &now,
	}).Error
	status := models.OperationSuccess
	if err != nil {
		status = models.OperationFailed
		logger.Log().WithError(err).WithField("deployment_id", runID).Error("failed to complete deployment")
		s.db.Model(&models.DeploymentHistory{}).Where("id = ?", runID).Updates(map[string]interface{}{
			"status":        models.DeployFailed,
			"error_message": err.Error(),
			"completed_at":  &now,
		})
	}

	if s.audit != nil {
		_ = s.audit.Log(&models.OperationLog{
			UserID:     userID,
			Action:     "deploy",
			Resource:   "server",
			ResourceID: strconv.FormatUint(uint64(server.ID), 10),
			Status:     status,
		})
	}
	if s.notifier != nil {
		s.notifier.Notify(models.EventDeployment, models.NotificationTypeSuccess, "Deployment completed", fmt.Sprintf("deployment #%d on %s finished", runID, server.Name))
	}
}

// Wait blocks until background deployments have finished.
func (s *DeploymentService) Wait() {
	s.wg.Wait()
}

// History returns the newest deployments, optionally for one server.
func (s *DeploymentService) History(serverID uint) ([]models.DeploymentHistory, error) {
	q := s.db.Order("started_at desc").Order("id desc").Limit(deploymentHistoryMax)
	if serverID != 0 {
		q = q.Where("server_id = ?", serverID)
	}
	var runs []models.DeploymentHistory
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
