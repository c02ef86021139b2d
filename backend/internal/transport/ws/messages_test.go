package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/playback"
	"rigpath/backend/internal/world"
)

func TestGetCurrentServerTime(t *testing.T) {
	now := time.Now().UnixMilli()
	assert.InDelta(t, now, GetCurrentServerTime(), 100)
}

func TestNewSceneMessage(t *testing.T) {
	overlay, err := path.NewOverlay(path.DemoWaypoints())
	require.NoError(t, err)

	objects := []world.Object{{
		Name:      world.Track,
		Position:  mgl64.Vec3{1, 0, 0},
		Bounds:    world.Box{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 3, 1}},
		Triangles: 12,
	}}

	msg := NewSceneMessage(overlay, objects, 300)
	assert.Equal(t, MessageTypeScene, msg.Type)
	assert.Equal(t, 300, msg.TotalFrames)
	assert.Same(t, overlay, msg.Path)
	require.Len(t, msg.Objects, 1)

	obj := msg.Objects[0]
	assert.Equal(t, "Track.glb", obj.Model)
	assert.Equal(t, 12, obj.Triangles)
	assert.Equal(t, mgl64.Vec3{1, 1, 0}, obj.Center.Position)
	assert.Equal(t, CenterMarkerRadius, obj.Center.Radius)
	assert.Equal(t, CenterMarkerColor, obj.Center.Color)
	assert.NotZero(t, msg.ServerTime)
}

func TestNewUpdateMessage(t *testing.T) {
	fr := playback.Frame{
		Index:    150,
		Total:    300,
		Progress: 0.5,
		Applied:  true,
		Positions: map[string]mgl64.Vec3{
			world.ZAxis: {-6.5, -1, 0},
		},
	}

	msg := NewUpdateMessage(fr, true)
	assert.Equal(t, MessageTypeUpdate, msg.Type)
	assert.Equal(t, 150, msg.Frame)
	assert.Equal(t, 300, msg.Total)
	assert.Equal(t, 0.5, msg.Progress)
	assert.True(t, msg.Applied)
	assert.True(t, msg.Paused)
	assert.Equal(t, Position{X: -6.5, Y: -1, Z: 0}, msg.Updates[world.ZAxis])

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Z_axis":{"x":-6.5,"y":-1,"z":0}`)
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected interface{}
		error    bool
	}{
		{
			name: "CommandMessage",
			json: `{"type":"cmd","cmd":"pause","client_time":123456}`,
			expected: &CommandMessage{
				Type:       MessageTypeCommand,
				Cmd:        CommandPause,
				ClientTime: 123456,
			},
		},
		{
			name: "PingMessage",
			json: `{"type":"ping","client_time":123456}`,
			expected: &PingMessage{
				Type:       MessageTypePing,
				ClientTime: 123456,
			},
		},
		{
			name:  "Invalid JSON",
			json:  `{"type":`,
			error: true,
		},
		{
			name:  "Server only type",
			json:  `{"type":"batch_update"}`,
			error: true,
		},
		{
			name:  "Unknown message type",
			json:  `{"type":"unknown"}`,
			error: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseMessage([]byte(tt.json))
			if tt.error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.NotEmpty(t, messageType(result))
		})
	}
}
