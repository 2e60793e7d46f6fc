package endpoint

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func validatePlanRequest(req *PlanRequest) error {
	if req == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return status.Error(codes.InvalidArgument, "user_id is required")
	}
	if strings.TrimSpace(req.WeekStartDate) == "" {
		return status.Error(codes.InvalidArgument, "week_start_date is required")
	}

	for i, id := range req.ProjectFilter {
		if strings.TrimSpace(id) == "" {
			return status.Errorf(codes.InvalidArgument, "project_filter[%d]: id is required", i)
		}
	}
	for i, id := range req.SelectedRecurringTaskIDs {
		if strings.TrimSpace(id) == "" {
			return status.Errorf(codes.InvalidArgument, "selected_recurring_task_ids[%d]: id is required", i)
		}
	}
	return nil
}
