// Package grpc_server exposes the gRPC health protocol for orchestrators and load balancers.
package grpc_server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall "" status.
const ServiceName = "courseplatform.api"

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

type HealthServer struct {
	Server *grpc.Server
	health *health.Server
	ping   Pinger
	log    *zap.Logger
}

func NewHealthServer(ping Pinger, log *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	reflection.Register(srv)

	return &HealthServer{Server: srv, health: h, ping: ping, log: log}
}

// Check pings once and publishes SERVING or NOT_SERVING.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch re-checks every interval until ctx is done, then marks the service as shutting down.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
