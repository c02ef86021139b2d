package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"rigpath/backend/internal/playback"
)

// Entry is one recorded playback frame.
type Entry struct {
	Timestamp int64                 `json:"timestamp"` // unix ms
	Frame     int                   `json:"frame"`
	Progress  float64               `json:"progress"`
	Segment   int                   `json:"segment"`
	Sample    mgl64.Vec3            `json:"sample"`
	Positions map[string]mgl64.Vec3 `json:"positions,omitempty"`
	Applied   bool                  `json:"applied"`
}

// Counters summarize everything recorded since the last reset.
type Counters struct {
	Frames  uint64 `json:"frames"`
	Wraps   uint64 `json:"wraps"`
	Skipped uint64 `json:"skipped"`
}

// Snapshot is the JSON document served to clients.
type Snapshot struct {
	Counters Counters `json:"counters"`
	Entries  []Entry  `json:"entries"`
}

var _ playback.FrameObserver = (*Manager)(nil)

// Manager keeps the most recent frames and periodically logs a summary.
type Manager struct {
	enabled    bool
	entries    []Entry
	maxEntries int
	counters   Counters
	mu         sync.RWMutex

	lastPrint     time.Time
	printInterval time.Duration
	logger        zerolog.Logger
}

func NewManager(maxEntries int, printInterval time.Duration, logger zerolog.Logger) *Manager {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Manager{
		enabled:       true,
		entries:       make([]Entry, 0, maxEntries),
		maxEntries:    maxEntries,
		lastPrint:     time.Now(),
		printInterval: printInterval,
		logger:        logger,
	}
}

// OnFrame implements playback.FrameObserver.
func (m *Manager) OnFrame(fr playback.Frame) {
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return
	}

	entry := Entry{
		Timestamp: fr.Time.UnixMilli(),
		Frame:     fr.Index,
		Progress:  fr.Progress,
		Segment:   fr.Segment,
		Sample:    fr.Sample,
		Positions: fr.Positions,
		Applied:   fr.Applied,
	}

	if len(m.entries) >= m.maxEntries {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, entry)

	m.counters.Frames++
	if fr.Wrapped {
		m.counters.Wraps++
	}
	if !fr.Applied {
		m.counters.Skipped++
	}
	m.mu.Unlock()

	m.PrintSummary()
}

// PrintSummary logs counters and the latest frame at most once per print
// interval, then resets the counters.
func (m *Manager) PrintSummary() {
	if m.printInterval <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.enabled || now.Sub(m.lastPrint) < m.printInterval || len(m.entries) == 0 {
		return
	}

	last := m.entries[len(m.entries)-1]
	m.logger.Info().
		Uint64("frames", m.counters.Frames).
		Uint64("wraps", m.counters.Wraps).
		Uint64("skipped", m.counters.Skipped).
		Int("frame", last.Frame).
		Float64("progress", last.Progress).
		Floats64("sample", last.Sample[:]).
		Msg("playback telemetry")

	m.counters = Counters{}
	m.lastPrint = now
}

// Snapshot returns a copy of the recorded state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, len(m.entries))
	copy(entries, m.entries)
	return Snapshot{Counters: m.counters, Entries: entries}
}

// JSON encodes the snapshot.
func (m *Manager) JSON() ([]byte, error) {
	return json.MarshalIndent(m.Snapshot(), "", "  ")
}

// SetEnabled toggles recording.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = enabled
	m.logger.Info().Bool("enabled", enabled).Msg("telemetry toggled")
}

// Clear drops all entries and counters.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = m.entries[:0]
	m.counters = Counters{}
}
