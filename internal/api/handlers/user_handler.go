package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/services"
)

type UserHandler struct {
	auth *services.AuthService
}

func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// RegisterRoutes registers the admin-only user listing.
func (h *UserHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/users", h.List)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.auth.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}
