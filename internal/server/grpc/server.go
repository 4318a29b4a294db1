// Package grpc serves the standard gRPC health protocol for orchestrator
// probes on a listener separate from the HTTP API.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/facevault/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported alongside the overall ("") status.
const ServiceName = "facevault"

type HealthServer struct {
	address string
	health  *health.Server
	logger  logging.Logger
}

// NewHealthServer creates a server that starts out NOT_SERVING.
func NewHealthServer(address string, l logging.Logger) *HealthServer {
	s := &HealthServer{
		address: address,
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_health"),
	}
	s.SetServing(false)
	return s
}

// SetServing flips the reported status for both the overall and the named
// service.
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then marks everything
// NOT_SERVING and stops gracefully.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
