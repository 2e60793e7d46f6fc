package grpc

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/endpoint"
	"github.com/example/weekplan/internal/logging"
)

// Server is the gRPC server for the Planner service.
type Server struct {
	endpoints    endpoint.Endpoints
	logger       *zap.Logger
	interceptors []grpc.UnaryServerInterceptor
	grpcServer   *grpc.Server
	health       *health.Server
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithUnaryInterceptors appends interceptors after logging and recovery.
func WithUnaryInterceptors(i ...grpc.UnaryServerInterceptor) ServerOption {
	return func(s *Server) {
		s.interceptors = append(s.interceptors, i...)
	}
}

// NewServer creates a new gRPC server.
func NewServer(endpoints endpoint.Endpoints, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		endpoints: endpoints,
		logger:    logging.OrNop(logger),
		health:    health.NewServer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	chain := append([]grpc.UnaryServerInterceptor{
		LoggingInterceptor(s.logger),
		RecoveryInterceptor(s.logger),
	}, s.interceptors...)
	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	)

	RegisterPlannerServer(s.grpcServer, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Enable reflection for grpcurl and other tools
	reflection.Register(s.grpcServer)

	return s
}

// GenerateWeeklyPlan implements PlannerServer.
func (s *Server) GenerateWeeklyPlan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req endpoint.PlanRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}

	resp, err := s.endpoints.GenerateWeeklyPlan(ctx, &req)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}

	out, err := toStruct(resp.(*domain.WeeklyPlanResponse))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Serve starts the gRPC server on the given address.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks the service as not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// LoggingInterceptor returns a gRPC interceptor that logs requests and their duration.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		// Attempt to extract the user for better logging
		if userID := extractUserID(req); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		if err != nil {
			logger.Warn("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("gRPC call", fields...)
		}
		return resp, err
	}
}

func extractUserID(req any) string {
	s, ok := req.(*structpb.Struct)
	if !ok {
		return ""
	}
	return s.GetFields()["user_id"].GetStringValue()
}

// RecoveryInterceptor returns a gRPC interceptor that recovers from panics.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("gRPC panic recovered",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
