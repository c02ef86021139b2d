// Package path samples positions along an ordered list of 3D waypoints.
package path

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrTooFewWaypoints is returned when a path cannot be interpolated.
var ErrTooFewWaypoints = errors.New("path needs at least 2 waypoints")

// Waypoint is a point in world space the rig passes through.
type Waypoint = mgl64.Vec3

// DemoWaypoints returns the rig demo trajectory. Callers get their own copy.
func DemoWaypoints() []Waypoint {
	return []Waypoint{
		{0, 1, 0},
		{10, 2, 8},
		{0, 1.5, 0},
		{20, 1.23, 20},
		{20, 1, -10},
	}
}

// Validate reports whether waypoints can be sampled.
func Validate(waypoints []Waypoint) error {
	if len(waypoints) < 2 {
		return ErrTooFewWaypoints
	}
	return nil
}

// Locate finds the segment bracketing progress on a path of n waypoints.
// current is clamped to [0, n-1], so progress >= 1 lands on the last waypoint
// with next == current.
func Locate(n int, progress float64) (current, next int, t float64) {
	if n < 2 || progress <= 0 {
		return 0, min(1, max(n-1, 0)), 0
	}
	if progress >= 1 {
		return n - 1, n - 1, 0
	}

	scaled := progress * float64(n-1)
	current = int(math.Floor(scaled))
	next = min(current+1, n-1)
	t = math.Mod(scaled, 1)
	return current, next, t
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Sample returns the position at progress along waypoints.
func Sample(waypoints []Waypoint, progress float64) Waypoint {
	current, next, t := Locate(len(waypoints), progress)
	from, to := waypoints[current], waypoints[next]

	return Waypoint{
		Lerp(from[0], to[0], t),
		Lerp(from[1], to[1], t),
		Lerp(from[2], to[2], t),
	}
}
