package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

type WhitelistHandler struct {
	service *services.WhitelistService
	audit   *services.AuditService
}

func NewWhitelistHandler(service *services.WhitelistService, audit *services.AuditService) *WhitelistHandler {
	return &WhitelistHandler{service: service, audit: audit}
}

func (h *WhitelistHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/whitelist", h.List)
	admin.POST("/whitelist", h.Create)
	admin.DELETE("/whitelist/:id", h.Delete)
}

type createWhitelistRequest struct {
	IPAddress   string `json:"ip_address" binding:"required"`
	Description string `json:"description"`
}

func whitelistErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrWhitelistNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrWhitelistExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidIPAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *WhitelistHandler) List(c *gin.Context) {
	entries, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list whitelist"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *WhitelistHandler) Create(c *gin.Context) {
	var req createWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := &models.IPWhitelist{
		IPAddress:   req.IPAddress,
		Description: req.Description,
		CreatedBy:   c.GetUint(middleware.UserIDKey),
	}
	err := h.service.Create(entry)
	recordAudit(c, h.audit, auditEvent{Action: "create", Resource: "ip_whitelist", ResourceID: idString(entry.ID), Details: req.IPAddress}, err)
	if err != nil {
		c.JSON(whitelistErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *WhitelistHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.service.Delete(id)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "ip_whitelist", ResourceID: idString(id)}, err)
	if err != nil {
		c.JSON(whitelistErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Whitelist entry deleted"})
}
