package playback

import (
	"sync"
	"time"
)

// SystemMetrics tracks execution timings of one tick system.
type SystemMetrics struct {
	Name              string        `json:"name"`
	LastExecutionTime time.Duration `json:"last_execution_time"`
	AverageTime       time.Duration `json:"average_time"`
	MaxTime           time.Duration `json:"max_time"`
	TotalExecutions   uint64        `json:"total_executions"`
	Errors            uint64        `json:"errors"`

	recent       []time.Duration
	recentIndex  int
	windowFilled bool
}

// PerformanceMonitor keeps a rolling window of system timings.
type PerformanceMonitor struct {
	systems map[string]*SystemMetrics
	mu      sync.RWMutex

	window            int
	warningThreshold  time.Duration
	criticalThreshold time.Duration
}

func NewPerformanceMonitor(window int, warningThreshold time.Duration) *PerformanceMonitor {
	if window <= 0 {
		window = 1
	}
	return &PerformanceMonitor{
		systems:           make(map[string]*SystemMetrics),
		window:            window,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

func (pm *PerformanceMonitor) init(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.systems[name] = &SystemMetrics{
		Name:   name,
		recent: make([]time.Duration, pm.window),
	}
}

func (pm *PerformanceMonitor) recordExecution(name string, d time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	m, ok := pm.systems[name]
	if !ok {
		return
	}

	m.LastExecutionTime = d
	m.TotalExecutions++
	if d > m.MaxTime {
		m.MaxTime = d
	}

	m.recent[m.recentIndex] = d
	m.recentIndex = (m.recentIndex + 1) % pm.window
	if !m.windowFilled && m.recentIndex == 0 {
		m.windowFilled = true
	}

	limit := pm.window
	if !m.windowFilled {
		limit = m.recentIndex
	}
	var total time.Duration
	for i := 0; i < limit; i++ {
		total += m.recent[i]
	}
	if limit > 0 {
		m.AverageTime = total / time.Duration(limit)
	}
}

func (pm *PerformanceMonitor) recordError(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if m, ok := pm.systems[name]; ok {
		m.Errors++
	}
}

// Systems returns a copy of the metrics of every registered system.
func (pm *PerformanceMonitor) Systems() map[string]SystemMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]SystemMetrics, len(pm.systems))
	for name, m := range pm.systems {
		cp := *m
		cp.recent = nil
		out[name] = cp
	}
	return out
}

// over reports whether d crosses the warning or critical threshold.
func (pm *PerformanceMonitor) over(d time.Duration) (warning, critical bool) {
	if pm.warningThreshold <= 0 {
		return false, false
	}
	return d > pm.warningThreshold, d > pm.criticalThreshold
}
