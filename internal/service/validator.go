package service

import (
	"go.uber.org/zap"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/logging"
)

// PlanValidator checks advisory candidates against the planning context.
type PlanValidator struct {
	logger *zap.Logger
}

// NewPlanValidator creates a PlanValidator.
func NewPlanValidator(logger *zap.Logger) *PlanValidator {
	return &PlanValidator{logger: logging.OrNop(logger)}
}

// Validate splits candidates into plans for known tasks and the IDs of
// unknown ones. Both slices are non-nil. Duplicates are validated
// independently. Display fields come from the context, never the candidate.
func (v *PlanValidator) Validate(candidates []domain.TaskPlanCandidate, pctx *domain.WeeklyPlanContext) ([]domain.TaskPlan, []string) {
	plans := make([]domain.TaskPlan, 0, len(candidates))
	skipped := make([]string, 0)

	for _, c := range candidates {
		task, ok := pctx.Task(c.TaskID)
		if !ok {
			v.logger.Warn("proposal references unknown task, skipping", zap.String("task_id", c.TaskID))
			skipped = append(skipped, c.TaskID)
			continue
		}

		plan := domain.TaskPlan{
			TaskID:         task.ID,
			TaskTitle:      task.Title,
			GoalID:         task.GoalID,
			EstimatedHours: c.EstimatedHours,
			Priority:       c.Priority,
			Rationale:      c.Rationale,
			SuggestedDay:   c.SuggestedDay,
			SuggestedSlot:  c.SuggestedSlot,
		}
		if proj, ok := pctx.ProjectForTask(task.ID); ok {
			plan.ProjectID = proj.ID
			plan.ProjectTitle = proj.Title
		}
		plans = append(plans, plan)
	}
	return plans, skipped
}
