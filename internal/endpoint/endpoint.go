package endpoint

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/service"
)

// Endpoint is a function that takes a request and returns a response.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Planner is the service operation exposed by the endpoints.
type Planner interface {
	GenerateWeeklyPlan(ctx context.Context, req *service.GenerateWeeklyPlanRequest) (*domain.WeeklyPlanResponse, error)
}

// Endpoints holds all endpoint handlers.
type Endpoints struct {
	GenerateWeeklyPlan Endpoint
}

// MakeEndpoints creates all endpoints from the service.
func MakeEndpoints(svc Planner) Endpoints {
	return Endpoints{
		GenerateWeeklyPlan: makeGenerateWeeklyPlanEndpoint(svc),
	}
}

// PlanRequest is the wire form of a planning request shared by the HTTP and
// gRPC transports.
type PlanRequest struct {
	UserID                   string             `json:"user_id"`
	WeekStartDate            string             `json:"week_start_date"`
	CapacityHours            float64            `json:"capacity_hours"`
	ProjectFilter            []string           `json:"project_filter,omitempty"`
	ProjectAllocations       map[string]float64 `json:"project_allocations,omitempty"`
	SelectedRecurringTaskIDs []string           `json:"selected_recurring_task_ids,omitempty"`
	Preferences              map[string]any     `json:"preferences,omitempty"`
}

// ToService converts the wire request to a service request.
func (r *PlanRequest) ToService() *service.GenerateWeeklyPlanRequest {
	return &service.GenerateWeeklyPlanRequest{
		UserID:                   r.UserID,
		WeekStartDate:            r.WeekStartDate,
		CapacityHours:            r.CapacityHours,
		ProjectFilter:            r.ProjectFilter,
		ProjectAllocations:       r.ProjectAllocations,
		SelectedRecurringTaskIDs: r.SelectedRecurringTaskIDs,
		Preferences:              r.Preferences,
	}
}

func makeGenerateWeeklyPlanEndpoint(svc Planner) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*PlanRequest)
		if err := validatePlanRequest(req); err != nil {
			return nil, err
		}
		return svc.GenerateWeeklyPlan(ctx, req.ToService())
	}
}

// MapErrorToStatus maps domain errors to gRPC status codes.
func MapErrorToStatus(err error) error {
	if err == nil {
		return nil
	}

	// Already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, domain.ErrExternalService):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrCatalog):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus maps an error to an HTTP status code and a client-safe message.
func HTTPStatus(err error) (int, string) {
	st, _ := status.FromError(MapErrorToStatus(err))
	switch {
	case st.Code() == codes.InvalidArgument:
		return http.StatusBadRequest, st.Message()
	case st.Code() == codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, st.Message()
	case errors.Is(err, domain.ErrExternalService):
		return http.StatusBadGateway, st.Message()
	case st.Code() == codes.Unavailable:
		return http.StatusServiceUnavailable, st.Message()
	case st.Code() == codes.NotFound:
		return http.StatusNotFound, st.Message()
	case st.Code() == codes.Canceled:
		// nginx's "client closed request"
		return 499, st.Message()
	default:
		return http.StatusInternalServerError, st.Message()
	}
}

// NewPlanRequest converts a service request to its wire form.
func NewPlanRequest(req *service.GenerateWeeklyPlanRequest) *PlanRequest {
	return &PlanRequest{
		UserID:                   req.UserID,
		WeekStartDate:            req.WeekStartDate,
		CapacityHours:            req.CapacityHours,
		ProjectFilter:            req.ProjectFilter,
		ProjectAllocations:       req.ProjectAllocations,
		SelectedRecurringTaskIDs: req.SelectedRecurringTaskIDs,
		Preferences:              req.Preferences,
	}
}
