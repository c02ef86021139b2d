package ws

import (
	"context"
	"time"
)

// clientStream is what one client has already been sent.
type clientStream struct {
	sceneSent  bool
	errorsSent int
	frameSeq   uint64
	paused     bool
}

// startClientStreaming pushes pending errors, the scene and the latest frame
// to conn every update interval.
func (s *Server) startClientStreaming(ctx context.Context, conn *SafeWriter) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	var state clientStream
	for {
		if err := s.flush(conn, &state); err != nil {
			s.logger.Debug().Err(err).Str("remote", conn.RemoteAddr()).Msg("stream stopped")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) flush(conn *SafeWriter, state *clientStream) error {
	s.mu.RLock()
	pendingErrors := s.errors[state.errorsSent:]
	scene := s.scene
	latest := s.latest
	seq := s.frameSeq
	paused := s.controller != nil && s.controller.Paused()
	s.mu.RUnlock()

	for _, msg := range pendingErrors {
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
		state.errorsSent++
	}

	if !state.sceneSent && scene != nil {
		if err := conn.WriteJSON(scene); err != nil {
			return err
		}
		state.sceneSent = true
	}

	if latest == nil || (seq == state.frameSeq && paused == state.paused) {
		return nil
	}
	if err := conn.WriteJSON(NewUpdateMessage(*latest, paused)); err != nil {
		return err
	}
	state.frameSeq = seq
	state.paused = paused
	return nil
}
