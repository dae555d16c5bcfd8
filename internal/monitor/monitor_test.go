package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/hostexec"
)

func TestResourceMonitor_Counters(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := cache.New()
	c.Set("a", 1, time.Minute)
	m := newResourceMonitor(c, clock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest()
		}()
	}
	wg.Wait()
	m.RecordError()

	now = now.Add(90 * time.Second)
	stats := m.Stats()
	assert.Equal(t, int64(20), stats.RequestCount)
	assert.Equal(t, int64(1), stats.ErrorCount)
	assert.Equal(t, int64(90), stats.Uptime)
	assert.Equal(t, 1, stats.CacheSize)
	assert.Greater(t, stats.Memory.HeapTotal+stats.Memory.RSS, uint64(0))

	again := m.Stats()
	assert.Equal(t, stats.RequestCount, again.RequestCount)

	m.Reset()
	stats = m.Stats()
	assert.Zero(t, stats.RequestCount)
	assert.Zero(t, stats.ErrorCount)
	assert.Zero(t, stats.Uptime)
}

func TestResourceMonitor_NilCache(t *testing.T) {
	m := NewResourceMonitor(nil)
	assert.Zero(t, m.Stats().CacheSize)
}

const psOutput = `USER       PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
mysql      812  1.5 12.0 1800000 240000 ?     Ssl  08:00   1:02 /usr/sbin/mysqld --daemonize
www-data  1201  0.3  2.1  300000  42000 ?     S    08:01   0:05 nginx: worker process
`

func TestSystemCollector_Processes(t *testing.T) {
	runner := hostexec.NewFakeRunner().On("ps aux --sort=-%mem", psOutput)
	c := cache.New()
	s := NewSystemCollector(c, runner)

	procs, err := s.Processes(context.Background())
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, ProcessInfo{User: "mysql", PID: "812", CPU: 1.5, Mem: 12.0, Command: "/usr/sbin/mysqld --daemonize"}, procs[0])
	assert.Equal(t, "nginx: worker process", procs[1].Command)

	_, err = s.Processes(context.Background())
	require.NoError(t, err)
	assert.Len(t, runner.Calls(), 1, "second call served from cache")
}

func TestSystemCollector_ProcessesError(t *testing.T) {
	runner := hostexec.NewFakeRunner().OnError("ps aux --sort=-%mem", errors.New("boom"))
	c := cache.New()
	s := NewSystemCollector(c, runner)

	_, err := s.Processes(context.Background())
	assert.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestParsePSLimit(t *testing.T) {
	out := "HEADER\n"
	for i := 0; i < 30; i++ {
		out += "root 1 0.0 0.1 1 1 ? S 00:00 0:00 init\n"
	}
	assert.Len(t, parsePS(out, processLimit), processLimit)
	assert.Empty(t, parsePS("HEADER", processLimit))
}

func TestSystemCollector_KillProcess(t *testing.T) {
	runner := hostexec.NewFakeRunner().
		On("ps aux --sort=-%mem", psOutput).
		On("kill -9 812", "")
	c := cache.New()
	s := NewSystemCollector(c, runner)

	_, err := s.Processes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	require.NoError(t, s.KillProcess(context.Background(), "812"))
	assert.Zero(t, c.Len())

	assert.ErrorIs(t, s.KillProcess(context.Background(), "1; rm -rf /"), ErrInvalidPID)
	assert.ErrorIs(t, s.KillProcess(context.Background(), "-1"), ErrInvalidPID)
	assert.Error(t, s.KillProcess(context.Background(), "999"))
}

func TestSystemCollector_SystemInfo(t *testing.T) {
	c := cache.New()
	s := NewSystemCollector(c, hostexec.NewFakeRunner())

	info, err := s.SystemInfo(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, info.CPU.Model)
	assert.Equal(t, 1, c.Len())

	cached, err := s.SystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, info, cached)
}

type fakeDocker struct {
	list []container.Summary
	err  error
}

func (f fakeDocker) ContainerList(context.Context, container.ListOptions) ([]container.Summary, error) {
	return f.list, f.err
}

func TestDockerService_ListContainers(t *testing.T) {
	svc := &DockerService{api: fakeDocker{list: []container.Summary{{
		ID:      "0123456789abcdef0123",
		Names:   []string{"/web"},
		Image:   "nginx:latest",
		State:   "running",
		Status:  "Up 2 hours",
		Created: 1700000000,
		Ports: []container.Port{
			{PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
			{PrivatePort: 443, Type: "tcp"},
		},
	}}}}

	out, err := svc.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "0123456789ab", out[0].ID)
	assert.Equal(t, []string{"web"}, out[0].Names)
	assert.Equal(t, []string{"8080:80/tcp", "443/tcp"}, out[0].Ports)
	assert.Equal(t, "running", out[0].State)

	svc = &DockerService{api: fakeDocker{err: errors.New("daemon down")}}
	_, err = svc.ListContainers(context.Background())
	assert.Error(t, err)
}
