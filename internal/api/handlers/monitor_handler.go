package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/monitor"
	"github.com/hostdeck/panel/backend/internal/services"
)

// ContainerLister is satisfied by *monitor.DockerService.
type ContainerLister interface {
	ListContainers(ctx context.Context) ([]monitor.ContainerInfo, error)
}

// MonitorHandler serves host statistics, the process list and containers.
type MonitorHandler struct {
	system *monitor.SystemCollector
	docker ContainerLister
	audit  *services.AuditService
}

// NewMonitorHandler creates a monitor handler. docker may be nil when the
// daemon is unreachable; container listing then answers 503.
func NewMonitorHandler(system *monitor.SystemCollector, docker ContainerLister, audit *services.AuditService) *MonitorHandler {
	return &MonitorHandler{system: system, docker: docker, audit: audit}
}

func (h *MonitorHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/monitor/system", h.System)
	r.GET("/monitor/processes", h.Processes)
	r.GET("/monitor/containers", h.Containers)
	admin.POST("/monitor/processes/:pid/kill", h.KillProcess)
}

func (h *MonitorHandler) System(c *gin.Context) {
	info, err := h.system.SystemInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *MonitorHandler) Processes(c *gin.Context) {
	procs, err := h.system.Processes(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, hostexec.ErrNotFound) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, procs)
}

func (h *MonitorHandler) Containers(c *gin.Context) {
	if h.docker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "docker is not available"})
		return
	}
	containers, err := h.docker.ListContainers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list containers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, containers)
}

func (h *MonitorHandler) KillProcess(c *gin.Context) {
	pid := c.Param("pid")
	err := h.system.KillProcess(c.Request.Context(), pid)
	recordAudit(c, h.audit, auditEvent{Action: "kill", Resource: "process", ResourceID: pid}, err)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, monitor.ErrInvalidPID) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "process killed"})
}
