package path

import "fmt"

// Drawing defaults for the path overlay: a white polyline and a yellow
// sphere on every waypoint.
const (
	PathColor     = "#ffffff"
	MarkerColor   = "#ffff00"
	MarkerRadius  = 0.2
	MarkerSegment = 16
)

// Marker is a sphere drawn at a fixed point in the scene.
type Marker struct {
	Position Waypoint `json:"position"`
	Radius   float64  `json:"radius"`
	Segments int      `json:"segments"`
	Color    string   `json:"color"`
}

// Overlay is the static path drawing: one polyline through every waypoint
// and a marker on each of them.
type Overlay struct {
	Line      []Waypoint `json:"line"`
	LineColor string     `json:"line_color"`
	Markers   []Marker   `json:"markers"`
}

// NewOverlay builds the drawing data for waypoints.
func NewOverlay(waypoints []Waypoint) (*Overlay, error) {
	if err := Validate(waypoints); err != nil {
		return nil, fmt.Errorf("drawing motion path: %w", err)
	}

	overlay := &Overlay{
		Line:      make([]Waypoint, len(waypoints)),
		LineColor: PathColor,
		Markers:   make([]Marker, 0, len(waypoints)),
	}
	copy(overlay.Line, waypoints)

	for _, wp := range waypoints {
		overlay.Markers = append(overlay.Markers, Marker{
			Position: wp,
			Radius:   MarkerRadius,
			Segments: MarkerSegment,
			Color:    MarkerColor,
		})
	}
	return overlay, nil
}
