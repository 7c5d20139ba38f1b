package health

import (
	"fmt"
	"log/slog"
	"net"

	"student-registry/internal/metrics"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall status.
const ServiceName = "student.v1.StudentRegistry"

// GRPCServer exposes the standard gRPC health checking protocol.
type GRPCServer struct {
	server *grpc.Server
	health *grpchealth.Server
	logger *slog.Logger
}

func NewGRPCServer(logger *slog.Logger, m *metrics.GrpcMetrics) *GRPCServer {
	server := grpc.NewServer(grpc.UnaryInterceptor(m.UnaryServerInterceptor()))
	healthServer := grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	s := &GRPCServer{
		server: server,
		health: healthServer,
		logger: logger,
	}
	s.SetServing(true)
	return s
}

// SetServing flips the overall and per-service status.
func (s *GRPCServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *GRPCServer) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}
	return s.Serve(lis)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server starting", "addr", lis.Addr().String())
	return s.server.Serve(lis)
}

func (s *GRPCServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
