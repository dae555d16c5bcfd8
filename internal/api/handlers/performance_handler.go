package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/monitor"
	"github.com/hostdeck/panel/backend/internal/services"
)

// PerformanceHandler reports process resource usage and manages the cache.
type PerformanceHandler struct {
	monitor *monitor.ResourceMonitor
	cache   *cache.Cache
	audit   *services.AuditService
}

func NewPerformanceHandler(m *monitor.ResourceMonitor, c *cache.Cache, audit *services.AuditService) *PerformanceHandler {
	return &PerformanceHandler{monitor: m, cache: c, audit: audit}
}

func (h *PerformanceHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/performance/stats", h.Stats)
	admin.POST("/performance/cache/flush", h.FlushCache)
	admin.POST("/performance/reset", h.Reset)
}

func (h *PerformanceHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Stats())
}

func (h *PerformanceHandler) FlushCache(c *gin.Context) {
	h.cache.ClearAll()
	recordAudit(c, h.audit, auditEvent{Action: "flush", Resource: "cache"}, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

func (h *PerformanceHandler) Reset(c *gin.Context) {
	h.monitor.Reset()
	recordAudit(c, h.audit, auditEvent{Action: "reset", Resource: "performance"}, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Counters reset"})
}
