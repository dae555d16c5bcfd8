package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

func TestNotificationHandler_ReadLifecycle(t *testing.T) {
	db := OpenTestDB(t)
	svc := services.NewNotificationService(db)
	first, err := svc.Create(models.NotificationTypeInfo, "One", "first")
	require.NoError(t, err)
	_, err = svc.Create(models.NotificationTypeWarning, "Two", "second")
	require.NoError(t, err)

	r, api := newTestRouter()
	NewNotificationHandler(svc).RegisterRoutes(api)

	w := doJSON(t, r, http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Notification](t, w), 2)

	w = doJSON(t, r, http.MethodPost, "/api/notifications/"+first.ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/notifications?unread=true", nil)
	assert.Len(t, decode[[]models.Notification](t, w), 1)

	w = doJSON(t, r, http.MethodPost, "/api/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/notifications?unread=true", nil)
	assert.Empty(t, decode[[]models.Notification](t, w))

	w = doJSON(t, r, http.MethodGet, "/api/notifications", nil)
	assert.Len(t, decode[[]models.Notification](t, w), 2)
}

func TestNotificationProviderHandler_CRUD(t *testing.T) {
	db := OpenTestDB(t)
	svc := services.NewNotificationService(db)
	r, api := newTestRouter()
	NewNotificationProviderHandler(svc, services.NewAuditService(db)).RegisterRoutes(api)

	w := doJSON(t, r, http.MethodPost, "/api/notifications/providers", map[string]any{
		"name": "ops", "type": "webhook", "url": "http://127.0.0.1:9/hook", "enabled": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.NotificationProvider](t, w)
	require.NotEmpty(t, created.ID)

	w = doJSON(t, r, http.MethodPost, "/api/notifications/providers", map[string]any{"name": "no-url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/notifications/providers/"+created.ID, map[string]any{
		"name": "ops-renamed", "type": "webhook", "url": "http://127.0.0.1:9/hook", "enabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/api/notifications/providers/missing", map[string]any{"name": "x", "url": "http://127.0.0.1/"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/notifications/providers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	providers := decode[[]models.NotificationProvider](t, w)
	require.Len(t, providers, 1)
	assert.Equal(t, "ops-renamed", providers[0].Name)
	assert.False(t, providers[0].Enabled)

	w = doJSON(t, r, http.MethodDelete, "/api/notifications/providers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/notifications/providers", nil)
	assert.Empty(t, decode[[]models.NotificationProvider](t, w))

	logs := auditRows(t, db)
	assert.Len(t, logs, 5)
}

func TestNotificationProviderHandler_Test(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	db := OpenTestDB(t)
	svc := services.NewNotificationService(db)
	r, api := newTestRouter()
	NewNotificationProviderHandler(svc, services.NewAuditService(db)).RegisterRoutes(api)

	w := doJSON(t, r, http.MethodPost, "/api/notifications/providers/test", map[string]any{
		"name": "ok", "type": "webhook", "url": ok.URL,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/notifications/providers/test", map[string]any{
		"name": "broken", "type": "webhook", "url": broken.URL,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	notes, err := svc.List(false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Test Failed", notes[0].Title)
}
