package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/services"
)

type DatabaseHandler struct {
	service *services.DatabaseService
	audit   *services.AuditService
}

func NewDatabaseHandler(service *services.DatabaseService, audit *services.AuditService) *DatabaseHandler {
	return &DatabaseHandler{service: service, audit: audit}
}

func (h *DatabaseHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/databases", h.List)
	admin.POST("/databases", h.Create)
	admin.DELETE("/databases/:id", h.Delete)
}

func databaseErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrDatabaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDatabaseExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidDatabase), errors.Is(err, services.ErrPasswordTooShort):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *DatabaseHandler) List(c *gin.Context) {
	dbs, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list databases"})
		return
	}
	c.JSON(http.StatusOK, dbs)
}

func (h *DatabaseHandler) Create(c *gin.Context) {
	var in services.CreateDatabaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.service.Create(in, c.GetUint(middleware.UserIDKey))
	ev := auditEvent{Action: "create", Resource: "database", Details: in.Name}
	if rec != nil {
		ev.ResourceID = idString(rec.ID)
	}
	recordAudit(c, h.audit, ev, err)
	if err != nil {
		c.JSON(databaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *DatabaseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.service.Delete(id)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "database", ResourceID: idString(id)}, err)
	if err != nil {
		c.JSON(databaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database deleted"})
}
