package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

type WebsiteHandler struct {
	service *services.WebsiteService
	audit   *services.AuditService
}

func NewWebsiteHandler(service *services.WebsiteService, audit *services.AuditService) *WebsiteHandler {
	return &WebsiteHandler{service: service, audit: audit}
}

func (h *WebsiteHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/websites", h.List)
	r.GET("/websites/:id", h.Get)
	admin.POST("/websites", h.Create)
	admin.PUT("/websites/:id", h.Update)
	admin.DELETE("/websites/:id", h.Delete)
}

type createWebsiteRequest struct {
	Name        string               `json:"name" binding:"required"`
	Domain      string               `json:"domain" binding:"required"`
	Path        string               `json:"path" binding:"required"`
	Port        int                  `json:"port"`
	SSLEnabled  bool                 `json:"ssl_enabled"`
	SSLCertPath string               `json:"ssl_cert_path"`
	SSLKeyPath  string               `json:"ssl_key_path"`
	Status      models.WebsiteStatus `json:"status"`
}

func websiteErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrWebsiteNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidWebsite), errors.Is(err, services.ErrInvalidWebsiteStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *WebsiteHandler) List(c *gin.Context) {
	sites, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list websites"})
		return
	}
	c.JSON(http.StatusOK, sites)
}

func (h *WebsiteHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	site, err := h.service.GetByID(id)
	if err != nil {
		c.JSON(websiteErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, site)
}

func (h *WebsiteHandler) Create(c *gin.Context) {
	var req createWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site := &models.Website{
		Name:        req.Name,
		Domain:      req.Domain,
		Path:        req.Path,
		Port:        req.Port,
		SSLEnabled:  req.SSLEnabled,
		SSLCertPath: req.SSLCertPath,
		SSLKeyPath:  req.SSLKeyPath,
		Status:      req.Status,
		CreatedBy:   c.GetUint(middleware.UserIDKey),
	}
	err := h.service.Create(site)
	recordAudit(c, h.audit, auditEvent{Action: "create", Resource: "website", ResourceID: idString(site.ID), Details: req.Domain}, err)
	if err != nil {
		c.JSON(websiteErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (h *WebsiteHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var upd services.WebsiteUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := h.service.Update(id, upd)
	recordAudit(c, h.audit, auditEvent{Action: "update", Resource: "website", ResourceID: idString(id)}, err)
	if err != nil {
		c.JSON(websiteErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, site)
}

func (h *WebsiteHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.service.Delete(id)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "website", ResourceID: idString(id)}, err)
	if err != nil {
		c.JSON(websiteErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Website deleted"})
}
