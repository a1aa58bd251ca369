package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkStore pings the store once and publishes the result. It returns the
// status it set.
func (s *GRPCServer) checkStore(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.probe.Ping(pctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn(ctx, "store probe failed", "error", err.Error())
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// watchStore probes the store every interval until ctx is done.
func (s *GRPCServer) watchStore(ctx context.Context) {
	s.checkStore(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkStore(ctx)
		}
	}
}
