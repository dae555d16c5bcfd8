package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/services"
)

// FileHandler is the HTTP face of the rooted file manager.
type FileHandler struct {
	service *services.FileService
	audit   *services.AuditService
}

func NewFileHandler(service *services.FileService, audit *services.AuditService) *FileHandler {
	return &FileHandler{service: service, audit: audit}
}

func (h *FileHandler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/files", h.List)
	r.GET("/files/content", h.Read)
	admin.PUT("/files/content", h.Write)
	admin.DELETE("/files", h.Delete)
	admin.POST("/files/mkdir", h.Mkdir)
}

type writeFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type mkdirRequest struct {
	Path string `json:"path"`
	Name string `json:"name" binding:"required"`
}

func fileErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidPath), errors.Is(err, services.ErrNotADirectory), errors.Is(err, services.ErrIsDirectory):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (h *FileHandler) List(c *gin.Context) {
	path := c.DefaultQuery("path", "/")
	entries, err := h.service.List(path)
	if err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "entries": entries})
}

func (h *FileHandler) Read(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	content, err := h.service.Read(path)
	if err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "content": content})
}

func (h *FileHandler) Write(c *gin.Context) {
	var req writeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.Write(req.Path, req.Content)
	recordAudit(c, h.audit, auditEvent{Action: "write", Resource: "file", ResourceID: req.Path}, err)
	if err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File saved"})
}

func (h *FileHandler) Delete(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	err := h.service.Delete(path)
	recordAudit(c, h.audit, auditEvent{Action: "delete", Resource: "file", ResourceID: path}, err)
	if err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

func (h *FileHandler) Mkdir(c *gin.Context) {
	var req mkdirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.service.Mkdir(req.Path, req.Name)
	recordAudit(c, h.audit, auditEvent{Action: "mkdir", Resource: "file", ResourceID: created, Details: req.Name}, err)
	if err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": created})
}
