package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdeck/panel/backend/internal/models"
)

func TestAuditService_LogDefaults(t *testing.T) {
	svc := NewAuditService(setupTestDB(t))

	entry := &models.OperationLog{UserID: 1, Action: "create", Resource: "website", Details: strings.Repeat("x", 5000)}
	require.NoError(t, svc.Log(entry))
	assert.Equal(t, models.OperationSuccess, entry.Status)
	assert.Len(t, entry.Details, maxAuditDetails)

	require.NoError(t, svc.Log(&models.OperationLog{UserID: 1, Action: "delete", Resource: "website", Status: models.OperationFailed}))

	logs, err := svc.List(0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0].Action)
	assert.Equal(t, models.OperationFailed, logs[0].Status)
}

func TestAuditService_ListLimit(t *testing.T) {
	svc := NewAuditService(setupTestDB(t))
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Log(&models.OperationLog{Action: "a", Resource: "r"}))
	}

	logs, err := svc.List(3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	logs, err = svc.List(5000)
	require.NoError(t, err)
	assert.Len(t, logs, 5)
}
