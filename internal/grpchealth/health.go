// Package grpchealth exposes the standard grpc.health.v1 service and keeps
// its status in step with the user store's reachability.
package grpchealth

import (
	"context"
	"log"
	"time"

	"github.com/alfagnish/usersvc/internal/users"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check service name clients query.
const ServiceName = "users"

// NewServer returns a gRPC server that serves hs as its health service.
func NewServer(hs *health.Server) *grpc.Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// Watcher pings the store on a fixed interval and flips the health
// status of both ServiceName and the overall server ("").
type Watcher struct {
	store    users.Store
	health   *health.Server
	interval time.Duration
	timeout  time.Duration
}

// NewWatcher creates a watcher; Health returns the server it updates.
func NewWatcher(store users.Store, interval time.Duration) *Watcher {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Watcher{
		store:    store,
		health:   hs,
		interval: interval,
		timeout:  5 * time.Second,
	}
}

// Health returns the health server updated by the watcher.
func (w *Watcher) Health() *health.Server { return w.health }

// Check pings the store once and records the result.
func (w *Watcher) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := w.store.Ping(ctx); err != nil {
		log.Printf("health: store ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	w.health.SetServingStatus("", status)
	w.health.SetServingStatus(ServiceName, status)
	return status
}

// Run checks immediately and then on every tick until ctx is done, at
// which point every status is set to NOT_SERVING.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			w.health.Shutdown()
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
