package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
)

// Stats is one profiling interval.
type Stats struct {
	FPS float64
	// HeapMB is live heap memory.
	HeapMB float64
	// AllocRateMB is heap allocation churn in MB per second.
	AllocRateMB float64
	GCCount     uint32
	// MaxPause is the longest GC pause during the interval.
	MaxPause time.Duration
	// Reallocs is the number of host buffer reallocations during the interval.
	Reallocs int
	// CPUPercent is system-wide CPU usage since the previous interval. Zero if unavailable.
	CPUPercent float64
}

// Profiler tracks frame rate, memory churn and buffer reallocations.
// Outputs stats to the logger at a configurable interval. Not safe for concurrent use.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastReallocs   int
	last           Stats
	log            *slog.Logger
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often stats are computed and logged.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger stats are written to.
func WithLogger(l *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProfiler creates a new Profiler. The interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		log:            slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tick should be called once per published frame.
// Logs statistics when the interval has elapsed.
//
// Parameters:
//   - reallocs: the running total of host buffer reallocations
//
// Returns:
//   - bool: true if stats were computed this tick
func (p *Profiler) Tick(reallocs int) bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var maxPause uint64
	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		maxPause = max(maxPause, p.memStats.PauseNs[i%256])
	}

	var cpuPercent float64
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		cpuPercent = usage[0]
	}

	p.last = Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     gcCount,
		MaxPause:    time.Duration(maxPause),
		Reallocs:    max(reallocs-p.lastReallocs, 0),
		CPUPercent:  cpuPercent,
	}
	p.log.Info("profiler",
		"fps", p.last.FPS,
		"heap_mb", p.last.HeapMB,
		"alloc_rate_mb", p.last.AllocRateMB,
		"gc", p.last.GCCount,
		"max_pause", p.last.MaxPause,
		"reallocs", p.last.Reallocs,
		"cpu", p.last.CPUPercent,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastReallocs = reallocs
	return true
}

// Last returns the stats of the most recent completed interval.
func (p *Profiler) Last() Stats {
	return p.last
}
