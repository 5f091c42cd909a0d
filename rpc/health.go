package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/wfunc/sweeper/logger"
)

// HealthServer runs the standard gRPC health service with reflection.
type HealthServer struct {
	listener net.Listener
	grpc     *grpc.Server
	health   *health.Server
}

func NewHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	reflection.Register(srv)

	return &HealthServer{listener: listener, grpc: srv, health: h}, nil
}

func (s *HealthServer) Addr() net.Addr {
	return s.listener.Addr()
}

// SetServing marks a named service (or "" for the whole server).
func (s *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Start serves until Stop.
func (s *HealthServer) Start() {
	s.SetServing("", true)
	logger.Log.Infof("gRPC health server listening on %s", s.listener.Addr())
	if err := s.grpc.Serve(s.listener); err != nil {
		logger.Log.Errorf("gRPC server stopped: %v", err)
	}
}

// Stop reports NOT_SERVING to watchers, then drains in-flight calls.
func (s *HealthServer) Stop() {
	logger.Log.Info("Stopping gRPC health server.")
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
