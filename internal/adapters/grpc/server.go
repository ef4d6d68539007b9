package grpc

import (
	"context"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dubinc/partner-integrity/internal/application"
)

type IntegrityInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewIntegrityInternalServer(service *application.Service) *IntegrityInternalServer {
	return &IntegrityInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *IntegrityInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *IntegrityInternalServer) Check(_ context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *IntegrityInternalServer) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
