package grpc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/endpoint"
	"github.com/example/weekplan/internal/service"
)

// Client calls a remote Planner service. It satisfies endpoint.Planner, so
// callers can swap a local PlannerService for a remote one.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial opens an insecure connection to target. The caller closes the
// returned connection.
func Dial(target string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return NewClient(conn), conn, nil
}

// GenerateWeeklyPlan calls the remote service. Errors are gRPC status errors.
func (c *Client) GenerateWeeklyPlan(ctx context.Context, req *service.GenerateWeeklyPlanRequest) (*domain.WeeklyPlanResponse, error) {
	in, err := toStruct(endpoint.NewPlanRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, generateWeeklyPlanMethod, in, out); err != nil {
		return nil, err
	}

	var resp domain.WeeklyPlanResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
