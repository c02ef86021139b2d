package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/playback"
	"rigpath/backend/internal/world"
)

// ErrInvalidMessage is returned when a handler receives the wrong type.
var ErrInvalidMessage = errors.New("invalid message")

// GetCurrentServerTime returns the server clock in milliseconds.
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

func NewInfoMessage(message string) *InfoMessage {
	return &InfoMessage{Type: MessageTypeInfo, Message: message}
}

func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{Type: MessageTypeError, Message: message}
}

func NewPongMessage(clientTime int64) *PongMessage {
	return &PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

func NewAckMessage(cmd string, clientTime int64) *AckMessage {
	return &AckMessage{
		Type:       MessageTypeAck,
		Cmd:        cmd,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewSceneMessage describes the path overlay and every loaded object.
func NewSceneMessage(overlay *path.Overlay, objects []world.Object, totalFrames int) *SceneMessage {
	msg := &SceneMessage{
		Type:        MessageTypeScene,
		TotalFrames: totalFrames,
		Path:        overlay,
		Objects:     make([]SceneObject, 0, len(objects)),
		ServerTime:  GetCurrentServerTime(),
	}

	for _, obj := range objects {
		msg.Objects = append(msg.Objects, SceneObject{
			Name:      obj.Name,
			Model:     obj.Name + ".glb",
			Position:  obj.Position,
			Bounds:    obj.Bounds,
			Triangles: obj.Triangles,
			Center: path.Marker{
				Position: obj.Center(),
				Radius:   CenterMarkerRadius,
				Segments: path.MarkerSegment,
				Color:    CenterMarkerColor,
			},
		})
	}
	return msg
}

// NewUpdateMessage converts a playback frame for the wire.
func NewUpdateMessage(fr playback.Frame, paused bool) *UpdateMessage {
	updates := make(map[string]Position, len(fr.Positions))
	for name, pos := range fr.Positions {
		updates[name] = toPosition(pos)
	}

	return &UpdateMessage{
		Type:     MessageTypeUpdate,
		Frame:    fr.Index,
		Total:    fr.Total,
		Progress: fr.Progress,
		Applied:  fr.Applied,
		Paused:   paused,
		Updates:  updates,
		Time:     GetCurrentServerTime(),
	}
}

func toPosition(v mgl64.Vec3) Position {
	return Position{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// ParseMessage decodes an incoming client message by its type field.
func ParseMessage(data []byte) (interface{}, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	switch base.Type {
	case MessageTypeCommand:
		var msg CommandMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("error parsing command message: %w", err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("error parsing ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unknown message type: %q", base.Type)
	}
}

// messageType returns the type of a parsed message.
func messageType(message interface{}) string {
	switch msg := message.(type) {
	case *CommandMessage:
		return msg.Type
	case *PingMessage:
		return msg.Type
	default:
		return ""
	}
}
