package grpc

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name probes may ask for; "" means the whole server
const ServiceName = "glucose.readings"

// Pinger is anything that can report storage reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler implements grpc.health.v1.Health backed by a storage ping
type HealthHandler struct {
	healthpb.UnimplementedHealthServer
	store Pinger
}

// NewHealthHandler creates a new gRPC health handler
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check pings storage on every call; there is no cached status
func (h *HealthHandler) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("service", req.GetService()).Msg("health check: storage unavailable")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}

	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
