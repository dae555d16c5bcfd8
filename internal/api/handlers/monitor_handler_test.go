package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/monitor"
	"github.com/hostdeck/panel/backend/internal/services"
)

type stubContainers struct {
	containers []monitor.ContainerInfo
	err        error
}

func (s stubContainers) ListContainers(context.Context) ([]monitor.ContainerInfo, error) {
	return s.containers, s.err
}

const psOutput = `USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND
root 1 0.0 0.1 1000 100 ? Ss 10:00 0:01 /sbin/init splash
www 42 1.5 2.5 2000 200 ? S 10:00 0:02 nginx: worker process
`

func setupMonitorHandler(t *testing.T, docker ContainerLister) (http.Handler, *hostexec.FakeRunner) {
	db := OpenTestDB(t)
	runner := hostexec.NewFakeRunner().
		On("ps aux --sort=-%mem", psOutput).
		On("kill -9 42", "")
	h := NewMonitorHandler(monitor.NewSystemCollector(cache.New(), runner), docker, services.NewAuditService(db))
	r, api := newTestRouter()
	h.RegisterRoutes(api, api)
	return r, runner
}

func TestMonitorHandler_System(t *testing.T) {
	r, _ := setupMonitorHandler(t, nil)
	w := doJSON(t, r, http.MethodGet, "/api/monitor/system", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[monitor.SystemInfo](t, w)
	assert.NotEmpty(t, info.CPU.Model)
}

func TestMonitorHandler_ProcessesAndKill(t *testing.T) {
	r, runner := setupMonitorHandler(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/monitor/processes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	procs := decode[[]monitor.ProcessInfo](t, w)
	require.Len(t, procs, 2)
	assert.Equal(t, "nginx: worker process", procs[1].Command)

	w = doJSON(t, r, http.MethodPost, "/api/monitor/processes/42/kill", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, runner.Calls(), "kill -9 42")

	w = doJSON(t, r, http.MethodPost, "/api/monitor/processes/abc/kill", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMonitorHandler_Containers(t *testing.T) {
	r, _ := setupMonitorHandler(t, nil)
	w := doJSON(t, r, http.MethodGet, "/api/monitor/containers", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	r, _ = setupMonitorHandler(t, stubContainers{containers: []monitor.ContainerInfo{{ID: "abc123", Image: "nginx"}}})
	w = doJSON(t, r, http.MethodGet, "/api/monitor/containers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]monitor.ContainerInfo](t, w), 1)

	r, _ = setupMonitorHandler(t, stubContainers{err: errors.New("daemon gone")})
	w = doJSON(t, r, http.MethodGet, "/api/monitor/containers", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
