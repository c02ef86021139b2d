package viewer

import (
	"encoding/json"
	"fmt"

	"rigpath/backend/internal/transport/ws"
)

// ConnectedMsg reports a successful dial.
type ConnectedMsg struct{ Addr string }

// DisconnectedMsg reports that the stream ended.
type DisconnectedMsg struct{ Err error }

// InfoMsg is a server notice.
type InfoMsg string

// ErrorMsg is a failure reported by the server.
type ErrorMsg string

// SceneMsg wraps the one-time scene description.
type SceneMsg ws.SceneMessage

// UpdateMsg wraps one streamed frame.
type UpdateMsg ws.UpdateMessage

// AckMsg confirms a command.
type AckMsg ws.AckMessage

// Decode turns a raw server message into a tea.Msg. Unknown types return
// nil without error.
func Decode(data []byte) (interface{}, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}

	switch base.Type {
	case ws.MessageTypeInfo:
		var m ws.InfoMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding info: %w", err)
		}
		return InfoMsg(m.Message), nil
	case ws.MessageTypeError:
		var m ws.ErrorMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding error: %w", err)
		}
		return ErrorMsg(m.Message), nil
	case ws.MessageTypeScene:
		var m SceneMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding scene: %w", err)
		}
		return m, nil
	case ws.MessageTypeUpdate:
		var m UpdateMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding update: %w", err)
		}
		return m, nil
	case ws.MessageTypeAck:
		var m AckMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding ack: %w", err)
		}
		return m, nil
	default:
		return nil, nil
	}
}
