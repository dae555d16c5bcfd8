package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
	"github.com/hostdeck/panel/backend/internal/util"
)

// auditEvent describes one administrative action for the operation log.
type auditEvent struct {
	Action     string
	Resource   string
	ResourceID string
	Details    string
}

// recordAudit writes ev with the caller's identity. A non-nil err marks the
// entry failed and is appended to the details.
func recordAudit(c *gin.Context, audit *services.AuditService, ev auditEvent, err error) {
	if audit == nil {
		return
	}
	entry := &models.OperationLog{
		UserID:     c.GetUint(middleware.UserIDKey),
		Action:     ev.Action,
		Resource:   ev.Resource,
		ResourceID: ev.ResourceID,
		Details:    util.SanitizeForLog(ev.Details),
		IPAddress:  c.ClientIP(),
		Status:     models.OperationSuccess,
	}
	if err != nil {
		entry.Status = models.OperationFailed
		if entry.Details != "" {
			entry.Details += ": "
		}
		entry.Details += err.Error()
	}
	_ = audit.Log(entry)
}

// parseID reads a positive numeric path parameter, answering 400 otherwise.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// idString renders id for the audit log; zero means no row was created.
func idString(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}
