package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

type FirewallHandler struct {
	service *services.FirewallService
	audit   *services.AuditService
}

func NewFirewallHandler(service *services.FirewallService, audit *services.AuditService) *FirewallHandler {
	return &FirewallHandler{service: service, audit: audit}
}

func (h *FirewallHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/firewall", h.List)
	admin.POST("/firewall", h.Create)
	admin.PATCH("/firewall/:id", h.Toggle)
	admin.DELETE("/firewall/:id", h.Delete)
}

type createFirewallRuleRequest struct {
	Name     string `json:"name" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Protocol string `json:"protocol"`
	Action   string `json:"action"`
	SourceIP string `json:"source_ip"`
}

type toggleFirewallRuleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func firewallErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrFirewallRuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidFirewallRule), errors.Is(err, services.ErrInvalidIPAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *FirewallHandler) List(c *gin.Context) {
	rules, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list firewall rules"})
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *FirewallHandler) Create(c *gin.Context) {
	var req createFirewallRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := &models.FirewallRule{
		Name:      req.Name,
		Port:      req.Port,
		Protocol:  req.Protocol,
		Action:    req.Action,
		SourceIP:  req.SourceIP,
		CreatedBy: c.GetUint(middleware.UserIDKey),
	}
	err := h.service.Create(rule)
	recordAudit(c, h.audit, auditEvent{
		Action:     "create",
		Resource:   "firewall_rule",
		ResourceID: idString(rule.ID),
		Details:    fmt.Sprintf("%s %d/%s", rule.Action, rule.Port, rule.Protocol),
	}, err)
	if err != nil {
		c.JSON(firewallErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *FirewallHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req toggleFirewallRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.SetEnabled(id, *req.Enabled)
	recordAudit(c, h.audit, auditEvent{Action: "toggle", Resource: "firewall_rule", ResourceID: idString(id), Details: fmt.Sprintf("enabled=%t", *req.Enabled)}, err)
	if err != nil {
		c.JSON(firewallErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

func (h *FirewallHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.service.Delete(id)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "firewall_rule", ResourceID: idString(id)}, err)
	if err != nil {
		c.JSON(firewallErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Firewall rule deleted"})
}
