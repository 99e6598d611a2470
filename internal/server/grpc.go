// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/AccelByte/extend-dynamic-rating/pkg/common"
	"github.com/AccelByte/extend-dynamic-rating/pkg/handler"
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

// GRPCServer serves DynamicRatingService with reflection and health checks.
type GRPCServer struct {
	server  *grpc.Server
	health  *health.Server
	port    int
	manager *prompt.Manager
}

// NewGRPCServer creates a gRPC server for manager on port.
func NewGRPCServer(port int, manager *prompt.Manager) *GRPCServer {
	return &GRPCServer{
		port:    port,
		manager: manager,
	}
}

func (s *GRPCServer) Name() string { return "gRPC" }

// Setup builds the server and registers the rating service.
//
// ============================================================
// DEVELOPER: gRPC server configuration
// ============================================================
// Every call is traced (otelgrpc) and access-logged through logrus.
// Add auth or rate limiting interceptors in serverOptions().
// Reflection lets grpcurl discover DynamicRatingService without a
// .proto file; the health service reports it for probes.
// ============================================================
func (s *GRPCServer) Setup() error {
	s.server = grpc.NewServer(serverOptions()...)

	handler.RegisterRatingService(s.server, handler.NewRating(s.manager))
	reflection.Register(s.server)

	s.health = health.NewServer()
	s.health.SetServingStatus(handler.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("registered gRPC service %s with reflection and health check", handler.ServiceName)
	return nil
}

func serverOptions() []grpc.ServerOption {
	logger := common.InterceptorLogger(logrus.StandardLogger())
	return []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(logging.UnaryServerInterceptor(logger)),
		grpc.ChainStreamInterceptor(logging.StreamServerInterceptor(logger)),
	}
}

func (s *GRPCServer) Start(context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis in the background.
func (s *GRPCServer) Serve(lis net.Listener) error {
	go func() {
		logrus.Infof("%s server listening on %s", s.Name(), lis.Addr())
		if err := s.server.Serve(lis); err != nil {
			logrus.Fatalf("%s server failed: %v", s.Name(), err)
		}
	}()
	return nil
}

// Shutdown marks the service NOT_SERVING and drains in-flight calls.
func (s *GRPCServer) Shutdown(context.Context) error {
	logrus.Infof("shutting down %s server...", s.Name())
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Infof("%s server stopped", s.Name())
	return nil
}
