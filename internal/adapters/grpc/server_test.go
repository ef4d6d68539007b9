package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dubinc/partner-integrity/internal/application"
)

// Register is the only place the health service may be bound: grpc-go treats
// a second registration of the same service name as fatal at startup.
func TestRegisterBindsHealthServiceOnce(t *testing.T) {
	server := grpc.NewServer()
	Register(server, NewIntegrityInternalServer(application.NewService(application.Dependencies{})))

	info := server.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Fatalf("health service not registered, got %v", info)
	}
	if len(info) != 1 {
		t.Fatalf("expected exactly one registered service, got %v", info)
	}
}

func TestCheckReportsServing(t *testing.T) {
	srv := NewIntegrityInternalServer(application.NewService(application.Dependencies{}))
	resp, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.Status)
	}
}
