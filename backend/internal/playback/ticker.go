package playback

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTPS matches a typical display refresh.
const DefaultTPS = 60

// TickSystem is one unit of per-tick work.
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // lower runs first
}

// TickerStats is a point in time view of the loop.
type TickerStats struct {
	TargetTPS       int                      `json:"target_tps"`
	ActualTPS       float64                  `json:"actual_tps"`
	TickCount       uint64                   `json:"tick_count"`
	Uptime          time.Duration            `json:"uptime"`
	AverageTickTime time.Duration            `json:"average_tick_time"`
	MaxObservedTick time.Duration            `json:"max_observed_tick"`
	SkippedTicks    uint64                   `json:"skipped_ticks"`
	Running         bool                     `json:"running"`
	Paused          bool                     `json:"paused"`
	Systems         map[string]SystemMetrics `json:"systems"`
}

// Ticker drives registered systems at a fixed rate until stopped. It
// replaces a self rescheduling frame callback with something that can be
// started, paused and stopped.
type Ticker struct {
	targetTPS        int
	tickDuration     time.Duration
	maxTickTime      time.Duration
	warningThreshold time.Duration

	mu              sync.Mutex
	running         bool
	paused          bool
	cancel          context.CancelFunc
	done            chan struct{}
	tickCount       uint64
	startTime       time.Time
	lastTickTime    time.Time
	averageTickTime time.Duration
	maxObservedTick time.Duration
	skippedTicks    uint64

	systems   []TickSystem
	systemsMu sync.RWMutex

	perf   *PerformanceMonitor
	logger zerolog.Logger
}

// NewTicker creates a stopped ticker. targetTPS <= 0 selects DefaultTPS.
func NewTicker(targetTPS int, logger zerolog.Logger) *Ticker {
	if targetTPS <= 0 {
		targetTPS = DefaultTPS
	}

	tickDuration := time.Second / time.Duration(targetTPS)

	return &Ticker{
		targetTPS:        targetTPS,
		tickDuration:     tickDuration,
		maxTickTime:      tickDuration * 2,
		warningThreshold: tickDuration / 2,
		perf:             NewPerformanceMonitor(50, tickDuration/4),
		logger:           logger,
	}
}

// RegisterSystem adds system, keeping systems ordered by priority.
func (t *Ticker) RegisterSystem(system TickSystem) {
	t.systemsMu.Lock()
	defer t.systemsMu.Unlock()

	t.systems = append(t.systems, system)
	sort.SliceStable(t.systems, func(i, j int) bool {
		return t.systems[i].GetPriority() < t.systems[j].GetPriority()
	})

	t.perf.init(system.GetName())

	t.logger.Debug().
		Str("system", system.GetName()).
		Int("priority", system.GetPriority()).
		Msg("system registered")
}

// Start launches the loop. It is a no-op when already running. The loop
// ends when ctx is cancelled or Stop is called.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("starting ticker: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true
	t.paused = false
	t.startTime = time.Now()
	t.lastTickTime = t.startTime

	t.logger.Info().
		Int("tps", t.targetTPS).
		Dur("tick", t.tickDuration).
		Msg("playback loop started")

	go t.loop(loopCtx, t.done)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	cancel()
	<-done

	t.logger.Info().Uint64("ticks", t.TickCount()).Msg("playback loop stopped")
}

// Pause keeps the loop alive but stops running systems.
func (t *Ticker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
}

// Resume undoes Pause.
func (t *Ticker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = false
}

// Running reports whether the loop is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Paused reports whether systems are currently suspended.
func (t *Ticker) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// TickCount returns the number of executed ticks.
func (t *Ticker) TickCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickCount
}

// Step runs every system once with deltaTime, on the caller's goroutine.
func (t *Ticker) Step(deltaTime time.Duration) {
	start := time.Now()

	t.mu.Lock()
	t.tickCount++
	t.mu.Unlock()

	t.systemsMu.RLock()
	systems := make([]TickSystem, len(t.systems))
	copy(systems, t.systems)
	t.systemsMu.RUnlock()

	for _, system := range systems {
		t.executeSystem(system, deltaTime)
	}

	t.updateTickMetrics(time.Since(start))
}

func (t *Ticker) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(t.tickDuration)
	defer func() {
		ticker.Stop()
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case tickTime := <-ticker.C:
			t.executeTick(tickTime)
		}
	}
}

func (t *Ticker) executeTick(tickTime time.Time) {
	t.mu.Lock()
	delta := tickTime.Sub(t.lastTickTime)
	t.lastTickTime = tickTime
	paused := t.paused
	if delta > t.tickDuration*2 {
		t.skippedTicks++
	}
	t.mu.Unlock()

	if paused {
		return
	}
	if delta > t.tickDuration*2 {
		t.logger.Debug().Dur("delta", delta).Dur("expected", t.tickDuration).Msg("late tick")
	}

	t.Step(delta)
}

func (t *Ticker) executeSystem(system TickSystem, deltaTime time.Duration) {
	name := system.GetName()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Str("system", name).Interface("panic", r).Msg("system panicked")
			t.perf.recordError(name)
		}
	}()

	err := system.Update(deltaTime)
	elapsed := time.Since(start)
	t.perf.recordExecution(name, elapsed)

	if err != nil {
		t.logger.Error().Err(err).Str("system", name).Msg("system update failed")
		t.perf.recordError(name)
	}
	if _, critical := t.perf.over(elapsed); critical {
		t.logger.Warn().Str("system", name).Dur("elapsed", elapsed).Msg("slow system")
	}
}

func (t *Ticker) updateTickMetrics(tickTime time.Duration) {
	t.mu.Lock()
	if tickTime > t.maxObservedTick {
		t.maxObservedTick = tickTime
	}
	if t.averageTickTime == 0 {
		t.averageTickTime = tickTime
	} else {
		t.averageTickTime = (t.averageTickTime*9 + tickTime) / 10
	}
	t.mu.Unlock()

	if tickTime > t.maxTickTime {
		t.logger.Warn().Dur("tick", tickTime).Dur("max", t.maxTickTime).Msg("tick exceeded budget")
	} else if tickTime > t.warningThreshold {
		t.logger.Debug().Dur("tick", tickTime).Dur("target", t.tickDuration).Msg("slow tick")
	}
}

// Stats returns loop metrics.
func (t *Ticker) Stats() TickerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var uptime time.Duration
	var actual float64
	if !t.startTime.IsZero() {
		uptime = time.Since(t.startTime)
		if secs := uptime.Seconds(); secs > 0 {
			actual = float64(t.tickCount) / secs
		}
	}

	return TickerStats{
		TargetTPS:       t.targetTPS,
		ActualTPS:       actual,
		TickCount:       t.tickCount,
		Uptime:          uptime,
		AverageTickTime: t.averageTickTime,
		MaxObservedTick: t.maxObservedTick,
		SkippedTicks:    t.skippedTicks,
		Running:         t.running,
		Paused:          t.paused,
		Systems:         t.perf.Systems(),
	}
}
