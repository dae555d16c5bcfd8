package services

import (
	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/logger"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/util"
)

const (
	DefaultAuditLimit = 100
	maxAuditLimit     = 1000
	maxAuditDetails   = 4096
)

// AuditService records administrative actions in the operation log.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log persists entry. Failures are logged and returned but callers
// generally ignore them so an audit write never fails the action itself.
func (s *AuditService) Log(entry *models.OperationLog) error {
	if entry.Status == "" {
		entry.Status = models.OperationSuccess
	}
	entry.Details = util.Truncate(entry.Details, maxAuditDetails)
	if err := s.db.Create(entry).Error; err != nil {
		logger.Log().WithError(err).WithField("action", entry.Action).Error("failed to write audit log")
		return err
	}
	return nil
}

// List returns the newest entries. limit <= 0 means DefaultAuditLimit.
func (s *AuditService) List(limit int) ([]models.OperationLog, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	var logs []models.OperationLog
	if err := s.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
