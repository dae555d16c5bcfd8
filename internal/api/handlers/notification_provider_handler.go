package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

// NotificationProviderHandler manages external alert destinations.
type NotificationProviderHandler struct {
	service *services.NotificationService
	audit   *services.AuditService
}

func NewNotificationProviderHandler(service *services.NotificationService, audit *services.AuditService) *NotificationProviderHandler {
	return &NotificationProviderHandler{service: service, audit: audit}
}

func (h *NotificationProviderHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/notifications/providers", h.List)
	admin.POST("/notifications/providers", h.Create)
	admin.PUT("/notifications/providers/:id", h.Update)
	admin.DELETE("/notifications/providers/:id", h.Delete)
	admin.POST("/notifications/providers/test", h.Test)
}

func (h *NotificationProviderHandler) List(c *gin.Context) {
	providers, err := h.service.ListProviders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list providers"})
		return
	}
	c.JSON(http.StatusOK, providers)
}

func (h *NotificationProviderHandler) Create(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.CreateProvider(&provider)
	recordAudit(c, h.audit, auditEvent{Action: "create", Resource: "notification_provider", ResourceID: provider.ID, Details: provider.Name}, err)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, provider)
}

func (h *NotificationProviderHandler) Update(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	provider.ID = c.Param("id")

	err := h.service.UpdateProvider(&provider)
	recordAudit(c, h.audit, auditEvent{Action: "update", Resource: "notification_provider", ResourceID: provider.ID}, err)
	if errors.Is(err, services.ErrProviderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update provider"})
		return
	}
	c.JSON(http.StatusOK, provider)
}

func (h *NotificationProviderHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	err := h.service.DeleteProvider(id)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "notification_provider", ResourceID: id}, err)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete provider"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Provider deleted"})
}

func (h *NotificationProviderHandler) Test(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.TestProvider(provider); err != nil {
		_, _ = h.service.Create(models.NotificationTypeError, "Test Failed", fmt.Sprintf("Provider %s test failed: %v", provider.Name, err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent"})
}
