package playback

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/world"
)

func newRigRegistry() *world.Registry {
	return world.NewRegistry(
		world.Object{Name: world.Platform},
		world.Object{Name: world.XAxis, Position: mgl64.Vec3{0, 4, 7}},
		world.Object{Name: world.YAxis, Position: mgl64.Vec3{0, 3, 0}},
		world.Object{Name: world.ZAxis},
		world.Object{Name: world.Track},
	)
}

func newDemoDriver(t *testing.T, reg *world.Registry, total int) *Driver {
	t.Helper()
	d, err := NewDriver(DriverConfig{
		Waypoints:   path.DemoWaypoints(),
		TotalFrames: total,
		Layout:      DefaultLayout(),
	}, reg, zerolog.Nop())
	require.NoError(t, err)
	return d
}

func TestNewDriver_Validation(t *testing.T) {
	_, err := NewDriver(DriverConfig{Waypoints: []path.Waypoint{{0, 0, 0}}, TotalFrames: 10}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, path.ErrTooFewWaypoints)

	_, err = NewDriver(DriverConfig{Waypoints: path.DemoWaypoints(), TotalFrames: 0}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidTotalFrames)
}

func TestDriver_WrapsAfterTotalFrames(t *testing.T) {
	const total = 300
	d := newDemoDriver(t, newRigRegistry(), total)

	last := -1.0
	for i := 0; i < total; i++ {
		fr := d.Step()
		assert.Equal(t, i, fr.Index)
		assert.Equal(t, float64(i)/total, fr.Progress)
		assert.Greater(t, fr.Progress, last, "progress must increase within a cycle")
		last = fr.Progress
		assert.Equal(t, i == total-1, fr.Wrapped)
	}

	assert.Equal(t, 0, d.Frame())
	assert.Equal(t, 0, d.Step().Index)
}

func TestDriver_MidpointAppliesOffsets(t *testing.T) {
	reg := newRigRegistry()
	d := newDemoDriver(t, reg, 300)

	var fr Frame
	for i := 0; i <= 150; i++ {
		fr = d.Step()
	}
	require.Equal(t, 150, fr.Index)
	assert.Equal(t, mgl64.Vec3{0, 1.5, 0}, fr.Sample)
	assert.Equal(t, 2, fr.Segment)
	assert.True(t, fr.Applied)

	snap := reg.Snapshot()
	assert.Equal(t, mgl64.Vec3{-6.5, 4, 7}, snap[world.XAxis])
	assert.Equal(t, mgl64.Vec3{-6.5, 3, 0}, snap[world.YAxis])
	assert.Equal(t, mgl64.Vec3{-6.5, -1, 0}, snap[world.ZAxis])
	assert.Equal(t, mgl64.Vec3{-6.5, -1, 0}, snap[world.Track])
	assert.Equal(t, mgl64.Vec3{}, snap[world.Platform], "platform is never moved")
	assert.Equal(t, snap[world.Track], fr.Positions[world.Track])
}

func TestDriver_SkipsWriteWhenPartMissing(t *testing.T) {
	reg := world.NewRegistry(world.Object{Name: world.XAxis}, world.Object{Name: world.YAxis})
	d := newDemoDriver(t, reg, 10)

	fr := d.Step()
	assert.False(t, fr.Applied)
	assert.Nil(t, fr.Positions)
	assert.Equal(t, 1, d.Frame(), "counter advances even when the write is skipped")

	pos, _ := reg.Position(world.XAxis)
	assert.Equal(t, mgl64.Vec3{}, pos)
}

func TestDriver_NilRegistry(t *testing.T) {
	d := newDemoDriver(t, nil, 4)
	for i := 0; i < 4; i++ {
		assert.False(t, d.Step().Applied)
	}
	assert.Equal(t, 0, d.Frame())
}

func TestDriver_NotifiesObservers(t *testing.T) {
	d := newDemoDriver(t, newRigRegistry(), 5)

	var got []int
	d.AddObserver(FrameObserverFunc(func(fr Frame) { got = append(got, fr.Index) }))

	for i := 0; i < 7; i++ {
		d.Step()
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 0, 1}, got)
}

func TestDriver_KeepsOwnWaypointCopy(t *testing.T) {
	wps := path.DemoWaypoints()
	d, err := NewDriver(DriverConfig{Waypoints: wps, TotalFrames: 2}, nil, zerolog.Nop())
	require.NoError(t, err)

	wps[0][0] = 100
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, d.Step().Sample)
	assert.Equal(t, path.DemoWaypoints(), d.Waypoints())
}

func TestLayout_Place(t *testing.T) {
	current := map[string]mgl64.Vec3{
		world.XAxis: {9, 8, 7},
		world.YAxis: {6, 5, 4},
	}
	got := DefaultLayout().Place(mgl64.Vec3{10, 2, 8}, current)

	assert.Equal(t, mgl64.Vec3{3.5, 8, 7}, got[world.XAxis])
	assert.Equal(t, mgl64.Vec3{3.5, 5, 8}, got[world.YAxis])
	assert.Equal(t, mgl64.Vec3{3.5, -0.5, 8}, got[world.ZAxis])
	assert.Equal(t, got[world.ZAxis], got[world.Track])
	assert.Len(t, got, 4)
}
