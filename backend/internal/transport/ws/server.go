package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/playback"
	"rigpath/backend/internal/world"
)

const (
	DefaultUpdateInterval = 50 * time.Millisecond
	DefaultPingInterval   = 2 * time.Second
	writeTimeout          = 5 * time.Second
)

// Controller is the part of the playback loop clients may steer.
type Controller interface {
	Pause()
	Resume()
	Paused() bool
}

// MessageHandler handles one parsed client message.
type MessageHandler func(conn *SafeWriter, message interface{}) error

// Options tune the stream.
type Options struct {
	UpdateInterval time.Duration
	PingInterval   time.Duration
}

// Server streams the rig scene and its playback to websocket clients.
type Server struct {
	upgrader       websocket.Upgrader
	handlers       map[string]MessageHandler
	updateInterval time.Duration
	pingInterval   time.Duration

	mu         sync.RWMutex
	scene      *SceneMessage
	errors     []*ErrorMessage
	latest     *playback.Frame
	frameSeq   uint64
	controller Controller

	clients   map[*SafeWriter]struct{}
	clientsMu sync.RWMutex

	logger zerolog.Logger
}

var _ playback.FrameObserver = (*Server)(nil)

func NewServer(opts Options, logger zerolog.Logger) *Server {
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = DefaultUpdateInterval
	}

	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handlers:       make(map[string]MessageHandler),
		updateInterval: opts.UpdateInterval,
		pingInterval:   opts.PingInterval,
		clients:        make(map[*SafeWriter]struct{}),
		logger:         logger,
	}

	s.RegisterHandler(MessageTypePing, s.handlePing)
	s.RegisterHandler(MessageTypeCommand, s.handleCmd)
	return s
}

// RegisterHandler installs handler for messageType. Not safe once serving.
func (s *Server) RegisterHandler(messageType string, handler MessageHandler) {
	s.handlers[messageType] = handler
}

// SetController attaches the playback loop.
func (s *Server) SetController(c Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = c
}

// SetScene publishes the one-time scene description to current and future
// clients.
func (s *Server) SetScene(overlay *path.Overlay, objects []world.Object, totalFrames int) {
	msg := NewSceneMessage(overlay, objects, totalFrames)

	s.mu.Lock()
	s.scene = msg
	s.mu.Unlock()

	s.logger.Info().Int("objects", len(objects)).Msg("scene published")
}

// ReportError queues an error for every current and future client.
func (s *Server) ReportError(message string) {
	s.mu.Lock()
	s.errors = append(s.errors, NewErrorMessage(message))
	s.mu.Unlock()

	s.logger.Warn().Str("error", message).Msg("error reported to clients")
}

// OnFrame implements playback.FrameObserver. It only stores the frame;
// client goroutines pick it up on their own schedule.
func (s *Server) OnFrame(fr playback.Frame) {
	s.mu.Lock()
	s.latest = &fr
	s.frameSeq++
	s.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// HandleWS upgrades the request and serves the connection until it closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	safeConn := NewSafeWriter(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.removeClient(safeConn)
		safeConn.Close()
	}()

	log := s.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("websocket connection established")

	if err := safeConn.WriteJSON(NewInfoMessage("Connected to rigpath playback")); err != nil {
		log.Error().Err(err).Msg("sending welcome failed")
		return
	}

	s.addClient(safeConn)

	if s.pingInterval > 0 {
		go s.startPing(ctx, safeConn)
	}
	go s.startClientStreaming(ctx, safeConn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			break
		}

		message, err := ParseMessage(data)
		if err != nil {
			log.Debug().Err(err).Msg("dropping message")
			continue
		}

		msgType := messageType(message)
		handler, ok := s.handlers[msgType]
		if !ok {
			log.Debug().Str("type", msgType).Msg("no handler for message")
			continue
		}
		if err := handler(safeConn, message); err != nil {
			log.Error().Err(err).Str("type", msgType).Msg("handling message failed")
		}
	}

	log.Info().Msg("websocket connection closed")
}

func (s *Server) addClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[conn] = struct{}{}
}

func (s *Server) removeClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, conn)
}

func (s *Server) startPing(ctx context.Context, conn *SafeWriter) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WritePing(writeTimeout); err != nil {
				s.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
