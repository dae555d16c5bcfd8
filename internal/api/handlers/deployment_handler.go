package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/services"
)

// DeploymentHandler manages deployment targets and runs.
type DeploymentHandler struct {
	service *services.DeploymentService
	audit   *services.AuditService
}

func NewDeploymentHandler(service *services.DeploymentService, audit *services.AuditService) *DeploymentHandler {
	return &DeploymentHandler{service: service, audit: audit}
}

func (h *DeploymentHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/deployment/servers", h.ListServers)
	r.GET("/deployment/servers/:id", h.GetServer)
	r.GET("/deployment/history", h.History)
	admin.POST("/deployment/servers", h.CreateServer)
	admin.DELETE("/deployment/servers/:id", h.DeleteServer)
	admin.POST("/deployment/servers/:id/test", h.TestConnection)
	admin.POST("/deployment/deploy", h.Deploy)
}

type deployRequest struct {
	ServerID   uint   `json:"server_id" binding:"required"`
	DeployType string `json:"deploy_type" binding:"required"`
	Command    string `json:"command"`
}

func deploymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrServerNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidServer), errors.Is(err, services.ErrInvalidPrivateKey), errors.Is(err, services.ErrInvalidDeployment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *DeploymentHandler) ListServers(c *gin.Context) {
	servers, err := h.service.ListServers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list servers"})
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (h *DeploymentHandler) GetServer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	server, err := h.service.GetServer(id)
	if err != nil {
		c.JSON(deploymentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, server)
}

func (h *DeploymentHandler) CreateServer(c *gin.Context) {
	var in services.CreateServerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server, err := h.service.CreateServer(in, c.GetUint(middleware.UserIDKey))
	ev := auditEvent{Action: "create", Resource: "server", Details: in.Host}
	if server != nil {
		ev.ResourceID = idString(server.ID)
	}
	recordAudit(c, h.audit, ev, err)
	if err != nil {
		c.JSON(deploymentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, server)
}

func (h *DeploymentHandler) DeleteServer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.service.DeleteServer(id)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "server", ResourceID: idString(id)}, err)
	if err != nil {
		c.JSON(deploymentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Server deleted"})
}

func (h *DeploymentHandler) TestConnection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.TestConnection(c.Request.Context(), id)
	if err == nil && !res.Success {
		recordAudit(c, h.audit, auditEvent{Action: "test_connection", Resource: "server", ResourceID: idString(id)}, errors.New(res.Message))
	} else {
		recordAudit(c, h.audit, auditEvent{Action: "test_connection", Resource: "server", ResourceID: idString(id)}, err)
	}
	if err != nil {
		c.JSON(deploymentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DeploymentHandler) Deploy(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.service.Deploy(c.Request.Context(), req.ServerID, req.DeployType, req.Command, c.GetUint(middleware.UserIDKey))
	// Successful runs are audited by the service when they complete.
	if err != nil {
		recordAudit(c, h.audit, auditEvent{Action: "deploy", Resource: "server", ResourceID: idString(req.ServerID), Details: req.DeployType}, err)
		c.JSON(deploymentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, run)
}

func (h *DeploymentHandler) History(c *gin.Context) {
	var serverID uint
	if v := c.Query("server_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid server_id"})
			return
		}
		serverID = uint(n)
	}
	runs, err := h.service.History(serverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load deployment history"})
		return
	}
	c.JSON(http.StatusOK, runs)
}
