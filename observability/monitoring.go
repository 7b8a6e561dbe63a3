package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitoringStats aggregates the counters exposed on the health endpoint.
type MonitoringStats struct {
	// --- WATCHER METRICS ---
	Fetches       uint64 `json:"fetches"`
	FetchFailures uint64 `json:"fetch_failures"`
	Detections    uint64 `json:"detections"`

	// --- SYSTEM METRICS ---
	RSSBytes   uint64    `json:"rss_bytes"`
	CPUPercent float64   `json:"cpu_percent"`
	AllocMemMb uint64    `json:"alloc_mem_mb"`
	NumGC      uint32    `json:"num_gc"`
	Goroutines int       `json:"goroutines"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MonitoringManager collects watcher activity and refreshes process
// statistics on a fixed interval while running.
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats
	interval    time.Duration
	proc        *process.Process

	fetches       atomic.Uint64
	fetchFailures atomic.Uint64
	detections    atomic.Uint64
}

func NewMonitoringManager(log *slog.Logger, interval time.Duration) *MonitoringManager {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	mm := &MonitoringManager{log: log, interval: interval}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		mm.proc = p
	} else {
		log.Warn("Process stats unavailable", "error", err)
	}
	return mm
}

func (mm *MonitoringManager) IncrFetch() {
	mm.fetches.Add(1)
}

func (mm *MonitoringManager) IncrFetchFailure() {
	mm.fetchFailures.Add(1)
}

func (mm *MonitoringManager) IncrDetection() {
	mm.detections.Add(1)
}

// Run refreshes the stats until ctx is canceled.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	mm.updateStats()
	for {
		select {
		case <-ctx.Done():
			mm.log.Debug("Monitoring manager stopped")
			return nil
		case <-ticker.C:
			mm.updateStats()
		}
	}
}

func (mm *MonitoringManager) updateStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := MonitoringStats{
		AllocMemMb: m.Alloc / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		UpdatedAt:  time.Now().UTC(),
	}
	if mm.proc != nil {
		if memInfo, err := mm.proc.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		}
		if cpu, err := mm.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}

	mm.mu.Lock()
	mm.latestStats = stats
	mm.mu.Unlock()

	mm.log.Debug("Stats updated",
		"fetches", mm.fetches.Load(),
		"fetch_failures", mm.fetchFailures.Load(),
		"detections", mm.detections.Load(),
		"mem_mb", stats.AllocMemMb,
	)
}

// GetLatest returns the last process stats with live counters.
func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	stats := mm.latestStats
	mm.mu.RUnlock()

	stats.Fetches = mm.fetches.Load()
	stats.FetchFailures = mm.fetchFailures.Load()
	stats.Detections = mm.detections.Load()
	return stats
}
