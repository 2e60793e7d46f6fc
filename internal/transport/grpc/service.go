package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "weekplan.v1.Planner"

const generateWeeklyPlanMethod = "/" + ServiceName + "/GenerateWeeklyPlan"

// PlannerServer is the server API for the Planner service. Messages are
// google.protobuf.Struct values carrying the JSON form of the request and
// response.
type PlannerServer interface {
	GenerateWeeklyPlan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPlannerServer registers srv with s.
func RegisterPlannerServer(s grpc.ServiceRegistrar, srv PlannerServer) {
	s.RegisterService(&plannerServiceDesc, srv)
}

var plannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GenerateWeeklyPlan",
			Handler:    generateWeeklyPlanHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "weekplan/v1/planner.proto",
}

func generateWeeklyPlanHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlannerServer).GenerateWeeklyPlan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: generateWeeklyPlanMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PlannerServer).GenerateWeeklyPlan(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
