package handlers

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/security"
	"github.com/hostdeck/panel/backend/internal/services"
)

// SecurityHandler exposes the host security scan and the IP ban list.
type SecurityHandler struct {
	manager *security.Manager
	audit   *services.AuditService
}

func NewSecurityHandler(manager *security.Manager, audit *services.AuditService) *SecurityHandler {
	return &SecurityHandler{manager: manager, audit: audit}
}

func (h *SecurityHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.POST("/security/scan", h.Scan)
	admin.GET("/security/bans", h.ListBans)
	admin.POST("/security/bans", h.Ban)
	admin.DELETE("/security/bans/:ip", h.Unban)
}

type banRequest struct {
	IP     string `json:"ip" binding:"required"`
	Reason string `json:"reason"`
	// DurationMinutes of zero bans permanently.
	DurationMinutes int `json:"duration_minutes"`
}

type scanSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

func (h *SecurityHandler) Scan(c *gin.Context) {
	results := h.manager.RunSecurityCheck(c.Request.Context())

	sum := scanSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case security.StatusPass:
			sum.Passed++
		case security.StatusFail:
			sum.Failed++
		case security.StatusWarning:
			sum.Warnings++
		}
	}
	recordAudit(c, h.audit, auditEvent{
		Action:   "scan",
		Resource: "security",
		Details:  fmt.Sprintf("%d passed, %d failed, %d warnings", sum.Passed, sum.Failed, sum.Warnings),
	}, nil)
	c.JSON(http.StatusOK, gin.H{"summary": sum, "results": results})
}

func (h *SecurityHandler) ListBans(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.BannedIPs())
}

func (h *SecurityHandler) Ban(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if net.ParseIP(req.IP) == nil {
		err := fmt.Errorf("invalid ip address: %q", req.IP)
		recordAudit(c, h.audit, auditEvent{Action: "ban", Resource: "ip", ResourceID: req.IP}, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DurationMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_minutes must not be negative"})
		return
	}
	if req.Reason == "" {
		req.Reason = "manual ban"
	}

	rec := h.manager.BanIP(c.Request.Context(), req.IP, req.Reason, time.Duration(req.DurationMinutes)*time.Minute)
	recordAudit(c, h.audit, auditEvent{Action: "ban", Resource: "ip", ResourceID: req.IP, Details: req.Reason}, nil)
	c.JSON(http.StatusCreated, rec)
}

func (h *SecurityHandler) Unban(c *gin.Context) {
	ip := c.Param("ip")
	if net.ParseIP(ip) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ip address"})
		return
	}
	h.manager.UnbanIP(c.Request.Context(), ip)
	recordAudit(c, h.audit, auditEvent{Action: "unban", Resource: "ip", ResourceID: ip}, nil)
	c.JSON(http.StatusOK, gin.H{"message": "IP unbanned"})
}
