package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/world"
)

// ErrInvalidTotalFrames is returned for a non positive frame count.
var ErrInvalidTotalFrames = errors.New("total frames must be positive")

// Frame is what the driver computed on one tick.
type Frame struct {
	Index     int                   `json:"frame"`
	Total     int                   `json:"total"`
	Progress  float64               `json:"progress"`
	Segment   int                   `json:"segment"`
	SegmentT  float64               `json:"segment_t"`
	Sample    mgl64.Vec3            `json:"sample"`
	Positions map[string]mgl64.Vec3 `json:"positions,omitempty"`
	Applied   bool                  `json:"applied"`
	Wrapped   bool                  `json:"wrapped"`
	Time      time.Time             `json:"time"`
}

// FrameObserver receives every frame after it was applied. Implementations
// must not block.
type FrameObserver interface {
	OnFrame(Frame)
}

// FrameObserverFunc adapts a function to FrameObserver.
type FrameObserverFunc func(Frame)

func (f FrameObserverFunc) OnFrame(fr Frame) { f(fr) }

// DriverConfig configures a Driver.
type DriverConfig struct {
	Waypoints   []path.Waypoint
	TotalFrames int
	Layout      Layout
}

// Driver moves the rig parts along the path, one frame per tick, looping
// forever.
type Driver struct {
	waypoints   []path.Waypoint
	totalFrames int
	layout      Layout
	registry    *world.Registry

	mu    sync.Mutex
	frame int

	observers []FrameObserver
	logger    zerolog.Logger
}

// NewDriver validates cfg and returns a driver at frame 0. registry may be
// nil, in which case frames are computed but never applied.
func NewDriver(cfg DriverConfig, registry *world.Registry, logger zerolog.Logger) (*Driver, error) {
	if err := path.Validate(cfg.Waypoints); err != nil {
		return nil, fmt.Errorf("creating driver: %w", err)
	}
	if cfg.TotalFrames <= 0 {
		return nil, fmt.Errorf("creating driver: %w (got %d)", ErrInvalidTotalFrames, cfg.TotalFrames)
	}

	wps := make([]path.Waypoint, len(cfg.Waypoints))
	copy(wps, cfg.Waypoints)

	return &Driver{
		waypoints:   wps,
		totalFrames: cfg.TotalFrames,
		layout:      cfg.Layout,
		registry:    registry,
		logger:      logger,
	}, nil
}

// AddObserver registers o for every following frame. Not safe to call while
// the driver is ticking.
func (d *Driver) AddObserver(o FrameObserver) {
	d.observers = append(d.observers, o)
}

// Frame returns the frame the next Step will render.
func (d *Driver) Frame() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// TotalFrames is the loop length.
func (d *Driver) TotalFrames() int {
	return d.totalFrames
}

// Waypoints returns a copy of the path.
func (d *Driver) Waypoints() []path.Waypoint {
	out := make([]path.Waypoint, len(d.waypoints))
	copy(out, d.waypoints)
	return out
}

// Progress converts a frame index to normalized progress.
func (d *Driver) Progress(frame int) float64 {
	return float64(frame) / float64(d.totalFrames)
}

// Step renders the current frame and advances the counter.
func (d *Driver) Step() Frame {
	d.mu.Lock()
	index := d.frame
	d.frame++
	wrapped := d.frame >= d.totalFrames
	if wrapped {
		d.frame = 0
	}
	d.mu.Unlock()

	progress := d.Progress(index)
	segment, _, t := path.Locate(len(d.waypoints), progress)
	sample := path.Sample(d.waypoints, progress)

	fr := Frame{
		Index:    index,
		Total:    d.totalFrames,
		Progress: progress,
		Segment:  segment,
		SegmentT: t,
		Sample:   sample,
		Wrapped:  wrapped,
		Time:     time.Now(),
	}

	if d.registry != nil && d.registry.Has(world.MovedNames...) {
		fr.Positions = d.layout.Place(sample, d.registry.Snapshot())
		for name, pos := range fr.Positions {
			d.registry.SetPosition(name, pos)
		}
		fr.Applied = true
	} else {
		d.logger.Debug().Int("frame", index).Msg("rig parts missing, position update skipped")
	}

	for _, o := range d.observers {
		o.OnFrame(fr)
	}
	return fr
}

// Update implements TickSystem. One call is one frame regardless of
// deltaTime.
func (d *Driver) Update(time.Duration) error {
	d.Step()
	return nil
}

func (d *Driver) GetName() string { return "playback" }

func (d *Driver) GetPriority() int { return 0 }
