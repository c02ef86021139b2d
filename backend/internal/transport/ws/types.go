package ws

import (
	"github.com/go-gl/mathgl/mgl64"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/world"
)

// Message types
const (
	MessageTypeInfo    = "info"         // server greeting
	MessageTypeScene   = "scene"        // one-time overlay and object list
	MessageTypeUpdate  = "batch_update" // latest positions
	MessageTypeError   = "error"        // load or drawing failure
	MessageTypePing    = "ping"         // latency probe from client
	MessageTypePong    = "pong"         // reply to ping
	MessageTypeCommand = "cmd"          // client command
	MessageTypeAck     = "cmd_ack"      // command accepted
)

// Commands
const (
	CommandPause  = "pause"
	CommandResume = "resume"
)

const (
	CenterMarkerRadius = 0.1
	CenterMarkerColor  = "#ffff00"
)

// InfoMessage is a human readable notice.
type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorMessage reports a failure the page should surface to the user.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SceneObject describes one loaded model and its center marker.
type SceneObject struct {
	Name      string      `json:"name"`
	Model     string      `json:"model"`
	Position  mgl64.Vec3  `json:"position"`
	Bounds    world.Box   `json:"bounds"`
	Triangles int         `json:"triangles"`
	Center    path.Marker `json:"center"`
}

// SceneMessage carries everything drawn once.
type SceneMessage struct {
	Type        string        `json:"type"`
	TotalFrames int           `json:"total_frames"`
	Path        *path.Overlay `json:"path"`
	Objects     []SceneObject `json:"objects"`
	ServerTime  int64         `json:"server_time"`
}

// Position is a wire friendly vector.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// UpdateMessage carries the positions of one playback frame.
type UpdateMessage struct {
	Type     string              `json:"type"`
	Frame    int                 `json:"frame"`
	Total    int                 `json:"total"`
	Progress float64             `json:"progress"`
	Applied  bool                `json:"applied"`
	Paused   bool                `json:"paused"`
	Updates  map[string]Position `json:"updates"`
	Time     int64               `json:"time"`
}

// CommandMessage is a command from a client.
type CommandMessage struct {
	Type       string `json:"type"`
	Cmd        string `json:"cmd"`
	ClientTime int64  `json:"client_time,omitempty"`
}

// AckMessage confirms a command.
type AckMessage struct {
	Type       string `json:"type"`
	Cmd        string `json:"cmd"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}

// PingMessage is a latency probe from a client.
type PingMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
}

// PongMessage answers a ping.
type PongMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}
