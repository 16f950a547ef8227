// Package server runs the gRPC side of the API: the standard health service and
// reflection, sharing a port with HTTP through the multiplexer.
package server

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"swipr-api/internal/grpc/interceptors"
	"swipr-api/internal/logging"
)

// ServiceName is the health service name that tracks document store availability. The
// empty service name reports SERVING for as long as the process accepts traffic, since
// the memory fallback keeps every endpoint working.
const ServiceName = "swipr.api.Storage"

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     logging.Logger
}

// NewServer builds the gRPC server. recorder may be nil.
func NewServer(recorder interceptors.Recorder) *Server {
	unary := []grpc.UnaryServerInterceptor{
		interceptors.RecoveryInterceptor(),
		interceptors.LoggingInterceptor(),
	}
	stream := []grpc.StreamServerInterceptor{
		interceptors.StreamRecoveryInterceptor(),
		interceptors.StreamLoggingInterceptor(),
	}
	if recorder != nil {
		unary = append(unary, interceptors.MetricsInterceptor(recorder))
		stream = append(stream, interceptors.StreamMetricsInterceptor(recorder))
	}

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(1024*1024),
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable reflection for debugging
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logging.GetGlobalLogger().WithField("component", "grpc"),
	}
}

// SetStorageAvailable updates the serving status of ServiceName
func (s *Server) SetStorageAvailable(available bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if available {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Start(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server...")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
