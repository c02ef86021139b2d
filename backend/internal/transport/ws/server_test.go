package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/playback"
	"rigpath/backend/internal/world"
)

type fakeController struct {
	mu     sync.Mutex
	paused bool
}

func (c *fakeController) Pause()  { c.mu.Lock(); c.paused = true; c.mu.Unlock() }
func (c *fakeController) Resume() { c.mu.Lock(); c.paused = false; c.mu.Unlock() }
func (c *fakeController) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func newTestServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()

	s := NewServer(Options{UpdateInterval: 5 * time.Millisecond}, zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return s, conn
}

// readType reads until a message of the wanted type arrives.
func readType(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)

		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg["type"] == want {
			return msg
		}
	}
}

func TestServer_WelcomeAndScene(t *testing.T) {
	s, conn := newTestServer(t)

	info := readType(t, conn, MessageTypeInfo)
	assert.Contains(t, info["message"], "Connected")

	overlay, err := path.NewOverlay(path.DemoWaypoints())
	require.NoError(t, err)
	s.SetScene(overlay, []world.Object{{Name: world.Platform}}, 300)

	scene := readType(t, conn, MessageTypeScene)
	assert.EqualValues(t, 300, scene["total_frames"])
	assert.Len(t, scene["objects"], 1)
	assert.Equal(t, 1, s.ClientCount())
}

func TestServer_StreamsLatestFrame(t *testing.T) {
	s, conn := newTestServer(t)
	readType(t, conn, MessageTypeInfo)

	s.OnFrame(playback.Frame{
		Index:     3,
		Total:     300,
		Progress:  0.01,
		Positions: map[string]mgl64.Vec3{world.Track: {1, 2, 3}},
	})

	update := readType(t, conn, MessageTypeUpdate)
	assert.EqualValues(t, 3, update["frame"])
	updates := update["updates"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"x": 1.0, "y": 2.0, "z": 3.0}, updates[world.Track])
}

func TestServer_ReplaysErrorsToLateClients(t *testing.T) {
	s := NewServer(Options{UpdateInterval: 5 * time.Millisecond}, zerolog.Nop())
	s.ReportError("Error loading model: Track")

	ts := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readType(t, conn, MessageTypeError)
	assert.Equal(t, "Error loading model: Track", msg["message"])
}

func TestServer_PingPong(t *testing.T) {
	_, conn := newTestServer(t)
	readType(t, conn, MessageTypeInfo)

	require.NoError(t, conn.WriteJSON(PingMessage{Type: MessageTypePing, ClientTime: 42}))
	pong := readType(t, conn, MessageTypePong)
	assert.EqualValues(t, 42, pong["client_time"])
	assert.NotZero(t, pong["server_time"])
}

func TestServer_Commands(t *testing.T) {
	s, conn := newTestServer(t)
	readType(t, conn, MessageTypeInfo)

	require.NoError(t, conn.WriteJSON(CommandMessage{Type: MessageTypeCommand, Cmd: CommandPause}))
	msg := readType(t, conn, MessageTypeError)
	assert.Contains(t, msg["message"], "not running")

	ctrl := &fakeController{}
	s.SetController(ctrl)

	require.NoError(t, conn.WriteJSON(CommandMessage{Type: MessageTypeCommand, Cmd: CommandPause, ClientTime: 7}))
	ack := readType(t, conn, MessageTypeAck)
	assert.Equal(t, CommandPause, ack["cmd"])
	assert.EqualValues(t, 7, ack["client_time"])
	assert.True(t, ctrl.Paused())

	require.NoError(t, conn.WriteJSON(CommandMessage{Type: MessageTypeCommand, Cmd: CommandResume}))
	readType(t, conn, MessageTypeAck)
	assert.False(t, ctrl.Paused())

	require.NoError(t, conn.WriteJSON(CommandMessage{Type: MessageTypeCommand, Cmd: "jump"}))
	msg = readType(t, conn, MessageTypeError)
	assert.Contains(t, msg["message"], "jump")
}

func TestServer_PauseStateIsStreamed(t *testing.T) {
	s, conn := newTestServer(t)
	ctrl := &fakeController{}
	s.SetController(ctrl)
	readType(t, conn, MessageTypeInfo)

	s.OnFrame(playback.Frame{Index: 1, Total: 10})
	update := readType(t, conn, MessageTypeUpdate)
	assert.Equal(t, false, update["paused"])

	ctrl.Pause()
	update = readType(t, conn, MessageTypeUpdate)
	assert.Equal(t, true, update["paused"])
	assert.EqualValues(t, 1, update["frame"])
}
