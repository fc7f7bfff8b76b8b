package handler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall status.
const ServiceName = "inventoryd"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter probes the storage backends and publishes the result over the standard
// grpc.health.v1 service and to the HTTP /health endpoint.
type HealthReporter struct {
	server  *health.Server
	checks  map[string]Pinger
	log     logrus.FieldLogger
	serving atomic.Bool
}

func NewHealthReporter(checks map[string]Pinger, log logrus.FieldLogger) *HealthReporter {
	return &HealthReporter{server: health.NewServer(), checks: checks, log: log}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Check pings every backend once and updates the published status.
func (h *HealthReporter) Check(ctx context.Context) bool {
	ok := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.WithError(err).WithField("backend", name).Warn("health check failed")
			ok = false
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	if h.serving.Swap(ok) != ok {
		h.log.WithField("status", status.String()).Info("health changed")
	}
	return ok
}

func (h *HealthReporter) Serving() bool {
	return h.serving.Load()
}

// Run re-checks on every interval until ctx is done.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			h.Check(checkCtx)
			cancel()
		}
	}
}

// Shutdown reports NOT_SERVING to health watchers ahead of GracefulStop.
func (h *HealthReporter) Shutdown() {
	h.serving.Store(false)
	h.server.Shutdown()
}
