// Package monitor reports on the panel process itself and on the host it runs on.
package monitor

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const mb = 1024 * 1024

// CacheSizer is satisfied by *cache.Cache.
type CacheSizer interface {
	Len() int
}

type MemoryStats struct {
	RSS       uint64 `json:"rss"`
	HeapTotal uint64 `json:"heap_total"`
	HeapUsed  uint64 `json:"heap_used"`
	External  uint64 `json:"external"`
}

// ResourceStats is a point-in-time snapshot. Memory figures are whole megabytes.
type ResourceStats struct {
	Uptime       int64       `json:"uptime"`
	RequestCount int64       `json:"request_count"`
	ErrorCount   int64       `json:"error_count"`
	Memory       MemoryStats `json:"memory"`
	CacheSize    int         `json:"cache_size"`
}

// ResourceMonitor counts requests and errors served by this process.
type ResourceMonitor struct {
	requests atomic.Int64
	errors   atomic.Int64

	mu      sync.Mutex
	started time.Time

	cache CacheSizer
	now   func() time.Time
}

func NewResourceMonitor(c CacheSizer) *ResourceMonitor {
	return newResourceMonitor(c, time.Now)
}

func newResourceMonitor(c CacheSizer, now func() time.Time) *ResourceMonitor {
	return &ResourceMonitor{cache: c, now: now, started: now()}
}

func (m *ResourceMonitor) RecordRequest() { m.requests.Add(1) }

func (m *ResourceMonitor) RecordError() { m.errors.Add(1) }

// Stats reads the counters and current memory usage without changing anything.
func (m *ResourceMonitor) Stats() ResourceStats {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	var external uint64
	if ms.Sys > ms.HeapSys {
		external = ms.Sys - ms.HeapSys
	}

	stats := ResourceStats{
		Uptime:       int64(m.now().Sub(started) / time.Second),
		RequestCount: m.requests.Load(),
		ErrorCount:   m.errors.Load(),
		Memory: MemoryStats{
			RSS:       processRSS() / mb,
			HeapTotal: ms.HeapSys / mb,
			HeapUsed:  ms.HeapAlloc / mb,
			External:  external / mb,
		},
	}
	if m.cache != nil {
		stats.CacheSize = m.cache.Len()
	}
	return stats
}

// Reset zeroes the counters and restarts the uptime clock.
func (m *ResourceMonitor) Reset() {
	m.mu.Lock()
	m.started = m.now()
	m.mu.Unlock()
	m.requests.Store(0)
	m.errors.Store(0)
}

func processRSS() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	info, err := p.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return info.RSS
}
