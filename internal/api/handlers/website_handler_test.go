package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

func setupWebsiteHandler(t *testing.T) (http.Handler, *services.AuditService) {
	db := OpenTestDB(t)
	audit := services.NewAuditService(db)
	h := NewWebsiteHandler(services.NewWebsiteService(db, cache.New()), audit)
	r, api := newTestRouter()
	h.RegisterRoutes(api, api)
	return r, audit
}

func TestWebsiteHandler_CRUD(t *testing.T) {
	r, audit := setupWebsiteHandler(t)

	w := doJSON(t, r, http.MethodPost, "/api/websites", map[string]interface{}{
		"name": "Blog", "domain": "blog.example.com", "path": "/var/www/blog", "port": 8080,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	site := decode[models.Website](t, w)
	assert.Equal(t, models.WebsiteStopped, site.Status)
	assert.Equal(t, uint(1), site.CreatedBy)

	w = doJSON(t, r, http.MethodGet, "/api/websites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Website](t, w), 1)

	w = doJSON(t, r, http.MethodPut, "/api/websites/"+idString(site.ID), map[string]interface{}{"status": "running"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.WebsiteRunning, decode[models.Website](t, w).Status)

	w = doJSON(t, r, http.MethodGet, "/api/websites/"+idString(site.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/websites/"+idString(site.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/websites/"+idString(site.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	logs, err := audit.List(10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Equal(t, "website", l.Resource)
		assert.Equal(t, models.OperationSuccess, l.Status)
		assert.Equal(t, uint(1), l.UserID)
	}
}

func TestWebsiteHandler_Errors(t *testing.T) {
	r, audit := setupWebsiteHandler(t)

	w := doJSON(t, r, http.MethodPost, "/api/websites", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/websites", map[string]interface{}{
		"name": "x", "domain": "x.test", "path": "/x", "status": "paused",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/websites/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/websites/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	logs, err := audit.List(10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, models.OperationFailed, l.Status)
	}
}
