package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/services"
)

// NotificationHandler serves the in-panel notification feed.
type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.List)
	r.POST("/notifications/:id/read", h.MarkAsRead)
	r.POST("/notifications/read-all", h.MarkAllAsRead)
}

// List returns notifications newest first; ?unread=true hides read ones.
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	notifications, err := h.service.List(unreadOnly)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	err := h.service.MarkAsRead(c.Param("id"))
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		middleware.GetRequestLogger(c).WithError(err).Error("mark notification read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
	default:
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
	}
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(); err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("mark all notifications read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}
