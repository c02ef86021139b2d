// Package health exposes playback liveness over the standard gRPC health
// protocol.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name clients check.
const Service = "rigpath.Playback"

// Server wraps a gRPC server carrying only the health service.
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
	logger zerolog.Logger
}

// NewServer returns a server reporting NOT_SERVING until MarkServing.
func NewServer(logger zerolog.Logger) *Server {
	hs := grpchealth.NewServer()
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpc: gs, health: hs, logger: logger}
}

// MarkServing flags playback as running.
func (s *Server) MarkServing() {
	s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
	s.logger.Info().Str("service", Service).Msg("health: serving")
}

// MarkNotServing flags playback as stopped.
func (s *Server) MarkNotServing() {
	s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	s.logger.Info().Str("service", Service).Msg("health: not serving")
}

// Serve accepts connections on lis until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(lis)
	}()

	s.logger.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc health: %w", err)
		}
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc health listen %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}
