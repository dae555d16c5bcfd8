package monitor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/sirupsen/logrus"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/logger"
)

const (
	systemInfoKey = "getSystemInfo"
	processesKey  = "getProcesses"
	processLimit  = 19
)

var ErrInvalidPID = errors.New("invalid pid")

type CPUInfo struct {
	Usage float64 `json:"usage"`
	Cores int     `json:"cores"`
	Model string  `json:"model"`
}

type UsageInfo struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	UsagePercent float64 `json:"usage_percent"`
}

type NetworkInfo struct {
	RX uint64 `json:"rx"`
	TX uint64 `json:"tx"`
}

// SystemInfo is the dashboard summary of the host.
type SystemInfo struct {
	CPU         CPUInfo     `json:"cpu"`
	Memory      UsageInfo   `json:"memory"`
	Disk        UsageInfo   `json:"disk"`
	Network     NetworkInfo `json:"network"`
	Uptime      uint64      `json:"uptime"`
	Platform    string      `json:"platform"`
	Hostname    string      `json:"hostname"`
	LoadAverage [3]float64  `json:"load_average"`
}

type ProcessInfo struct {
	User    string  `json:"user"`
	PID     string  `json:"pid"`
	CPU     float64 `json:"cpu"`
	Mem     float64 `json:"mem"`
	Command string  `json:"command"`
}

// SystemCollector gathers host statistics. Results are memoized in the shared
// cache so dashboards polling every second do not hammer the host.
type SystemCollector struct {
	cache  *cache.Cache
	runner hostexec.Runner
	log    *logrus.Entry
}

func NewSystemCollector(c *cache.Cache, runner hostexec.Runner) *SystemCollector {
	return &SystemCollector{cache: c, runner: runner, log: logger.Component("monitor")}
}

// SystemInfo returns host statistics. Sections that cannot be read are left zero.
func (s *SystemCollector) SystemInfo(ctx context.Context) (SystemInfo, error) {
	return cache.Memoize(s.cache, systemInfoKey, cache.SystemInfoTTL, nil, func() (SystemInfo, error) {
		return s.collect(ctx), nil
	})
}

func (s *SystemCollector) collect(ctx context.Context) SystemInfo {
	var info SystemInfo

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		info.CPU.Usage = pct[0]
	} else if err != nil {
		s.log.WithError(err).Debug("cpu usage unavailable")
	}
	info.CPU.Cores, _ = cpu.CountsWithContext(ctx, true)
	info.CPU.Model = "Unknown"
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 && cpus[0].ModelName != "" {
		info.CPU.Model = cpus[0].ModelName
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.Memory = UsageInfo{Total: vm.Total, Used: vm.Used, Free: vm.Free, UsagePercent: vm.UsedPercent}
	} else {
		s.log.WithError(err).Warn("memory usage unavailable")
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		info.Disk = UsageInfo{Total: du.Total, Used: du.Used, Free: du.Free, UsagePercent: du.UsedPercent}
	} else {
		s.log.WithError(err).Warn("disk usage unavailable")
	}

	if counters, err := psnet.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		info.Network = NetworkInfo{RX: counters[0].BytesRecv, TX: counters[0].BytesSent}
	} else if err != nil {
		s.log.WithError(err).Warn("network stats unavailable")
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Uptime = hi.Uptime
		info.Platform = hi.OS
		info.Hostname = hi.Hostname
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.LoadAverage = [3]float64{avg.Load1, avg.Load5, avg.Load15}
	}

	return info
}

// Processes lists the processes using the most memory.
func (s *SystemCollector) Processes(ctx context.Context) ([]ProcessInfo, error) {
	return cache.Memoize(s.cache, processesKey, cache.ProcessListTTL, nil, func() ([]ProcessInfo, error) {
		out, err := s.runner.Run(ctx, "ps", "aux", "--sort=-%mem")
		if err != nil {
			return nil, err
		}
		return parsePS(out, processLimit), nil
	})
}

func parsePS(out string, limit int) []ProcessInfo {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	procs := make([]ProcessInfo, 0, limit)
	for _, line := range lines[1:] {
		if len(procs) == limit {
			break
		}
		parts := strings.Fields(line)
		if len(parts) < 11 {
			continue
		}
		cpuPct, _ := strconv.ParseFloat(parts[2], 64)
		memPct, _ := strconv.ParseFloat(parts[3], 64)
		procs = append(procs, ProcessInfo{
			User:    parts[0],
			PID:     parts[1],
			CPU:     cpuPct,
			Mem:     memPct,
			Command: strings.Join(parts[10:], " "),
		})
	}
	return procs
}

// KillProcess sends SIGKILL to pid and drops the cached process list.
func (s *SystemCollector) KillProcess(ctx context.Context, pid string) error {
	n, err := strconv.Atoi(pid)
	if err != nil || n <= 0 {
		return ErrInvalidPID
	}
	if _, err := s.runner.Run(ctx, "kill", "-9", strconv.Itoa(n)); err != nil {
		return err
	}
	s.cache.Clear(cache.Key(processesKey))
	s.log.WithField("pid", n).Info("process killed")
	return nil
}
