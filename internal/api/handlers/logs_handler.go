package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/services"
)

// LogsHandler exposes the operation log.
type LogsHandler struct {
	audit *services.AuditService
}

func NewLogsHandler(audit *services.AuditService) *LogsHandler {
	return &LogsHandler{audit: audit}
}

func (h *LogsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/logs", h.List)
}

func (h *LogsHandler) List(c *gin.Context) {
	limit := services.DefaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	logs, err := h.audit.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
