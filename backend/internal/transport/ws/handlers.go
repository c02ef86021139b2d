package ws

import (
	"fmt"
)

func (s *Server) handlePing(conn *SafeWriter, message interface{}) error {
	ping, ok := message.(*PingMessage)
	if !ok {
		return ErrInvalidMessage
	}
	return conn.WriteJSON(NewPongMessage(ping.ClientTime))
}

// handleCmd pauses or resumes playback.
func (s *Server) handleCmd(conn *SafeWriter, message interface{}) error {
	cmd, ok := message.(*CommandMessage)
	if !ok {
		return ErrInvalidMessage
	}

	s.mu.RLock()
	controller := s.controller
	s.mu.RUnlock()

	if controller == nil {
		return conn.WriteJSON(NewErrorMessage("playback is not running yet"))
	}

	switch cmd.Cmd {
	case CommandPause:
		controller.Pause()
	case CommandResume:
		controller.Resume()
	default:
		return conn.WriteJSON(NewErrorMessage(fmt.Sprintf("unknown command %q", cmd.Cmd)))
	}

	s.logger.Info().Str("cmd", cmd.Cmd).Msg("playback command")
	return conn.WriteJSON(NewAckMessage(cmd.Cmd, cmd.ClientTime))
}
