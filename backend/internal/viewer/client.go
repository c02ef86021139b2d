package viewer

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rigpath/backend/internal/transport/ws"
)

// Client is a websocket connection to the playback stream.
type Client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	logger zerolog.Logger
}

// Dial connects to the stream at url (ws://host/ws).
func Dial(url string, logger zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// Send asks the server to run a playback command.
func (c *Client) Send(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ws.CommandMessage{
		Type:       ws.MessageTypeCommand,
		Cmd:        cmd,
		ClientTime: ws.GetCurrentServerTime(),
	})
}

// Run reads messages until the connection fails and hands every decoded one
// to deliver. The final DisconnectedMsg is delivered too.
func (c *Client) Run(deliver func(interface{})) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			deliver(DisconnectedMsg{Err: err})
			return
		}

		msg, err := Decode(data)
		if err != nil {
			c.logger.Debug().Err(err).Msg("dropping message")
			continue
		}
		if msg != nil {
			deliver(msg)
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
