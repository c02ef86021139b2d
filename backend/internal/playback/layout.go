package playback

import (
	"github.com/go-gl/mathgl/mgl64"

	"rigpath/backend/internal/world"
)

// Layout aligns a path sample with the rig geometry. The models are authored
// off center, so every moved part is shifted by a constant offset.
type Layout struct {
	OffsetX float64
	OffsetY float64
}

// DefaultLayout matches the demo models.
func DefaultLayout() Layout {
	return Layout{OffsetX: -6.5, OffsetY: -2.5}
}

// Place derives the target position of each moved part from sample.
// current supplies the parts' existing positions for the axes they keep.
//
//	X_axis: sampled x, own y and z
//	Y_axis: sampled x and z, own y
//	Z_axis, Track: full sample
func (l Layout) Place(sample mgl64.Vec3, current map[string]mgl64.Vec3) map[string]mgl64.Vec3 {
	x := sample.X() + l.OffsetX
	y := sample.Y() + l.OffsetY
	z := sample.Z()

	xAxis := current[world.XAxis]
	yAxis := current[world.YAxis]

	return map[string]mgl64.Vec3{
		world.XAxis: {x, xAxis.Y(), xAxis.Z()},
		world.YAxis: {x, yAxis.Y(), z},
		world.ZAxis: {x, y, z},
		world.Track: {x, y, z},
	}
}
