package world

import "github.com/go-gl/mathgl/mgl64"

// Names of the rig parts, one model each.
const (
	Platform = "Platform"
	XAxis    = "X_axis"
	YAxis    = "Y_axis"
	ZAxis    = "Z_axis"
	Track    = "Track"
)

// TrackedNames lists every part the scene waits for, in load order.
var TrackedNames = []string{Platform, XAxis, YAxis, ZAxis, Track}

// MovedNames lists the parts the playback driver repositions each tick.
var MovedNames = []string{XAxis, YAxis, ZAxis, Track}

// Box is an axis aligned bounding box in model space.
type Box struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Object is a named, positionable scene node backed by a loaded model.
type Object struct {
	Name      string     `json:"name"`
	Position  mgl64.Vec3 `json:"position"`
	Bounds    Box        `json:"bounds"`
	Triangles int        `json:"triangles"`
	Source    string     `json:"source,omitempty"`
}

// Center is the object's bounding box center in world space.
func (o Object) Center() mgl64.Vec3 {
	return o.Bounds.Center().Add(o.Position)
}
