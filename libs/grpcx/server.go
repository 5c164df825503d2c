package grpcx

import (
	"context"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer is a gRPC server exposing only grpc.health.v1.Health, so
// orchestrators can probe the service over gRPC.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLoggingInterceptor(logger),
		),
	)
	h := health.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	return &HealthServer{srv: srv, health: h, logger: logger}
}

// SetServing flips the overall ("") serving status.
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	s.SetServing(true)
	s.logger.Info("grpc server starting", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Shutdown marks the service NOT_SERVING and stops gracefully, forcing a stop
// when ctx expires first.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}
