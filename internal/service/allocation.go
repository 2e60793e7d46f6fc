package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/logging"
)

// DefaultBufferHours is reserved for meetings and overhead.
const DefaultBufferHours = 5.0

// AllocationPlanner turns allocation percentages into hour budgets.
type AllocationPlanner struct {
	bufferHours float64
	logger      *zap.Logger
}

// NewAllocationPlanner creates an AllocationPlanner.
func NewAllocationPlanner(bufferHours float64, logger *zap.Logger) *AllocationPlanner {
	return &AllocationPlanner{bufferHours: bufferHours, logger: logging.OrNop(logger)}
}

// AvailableHours is the capacity left after the buffer. It is negative when
// capacity is below the buffer.
func (p *AllocationPlanner) AvailableHours(capacityHours float64) float64 {
	return capacityHours - p.bufferHours
}

// Plan computes one allocation per percentage whose project is in the
// context, in context project order. Percentages are used as given; sums
// over 100 are not normalized.
func (p *AllocationPlanner) Plan(pctx *domain.WeeklyPlanContext, percentages map[string]float64) []domain.ProjectAllocation {
	available := p.AvailableHours(pctx.CapacityHours)
	out := make([]domain.ProjectAllocation, 0, len(percentages))

	for _, proj := range pctx.Projects {
		pct, ok := percentages[proj.ID]
		if !ok {
			continue
		}
		target := pct / 100 * available
		out = append(out, domain.ProjectAllocation{
			ProjectID:      proj.ID,
			ProjectTitle:   proj.Title,
			Percentage:     pct,
			TargetHours:    target,
			MaxHours:       target * domain.MaxHoursFactor,
			PriorityWeight: pct / 100,
		})
	}

	if len(out) < len(percentages) {
		var unresolved []string
		for id := range percentages {
			if _, ok := pctx.Project(id); !ok {
				unresolved = append(unresolved, id)
			}
		}
		sort.Strings(unresolved)
		for _, id := range unresolved {
			p.logger.Warn("allocation references a project outside the planning context, skipping",
				zap.String("project_id", id))
		}
	}
	return out
}

// StoredPercentages collects the allocation percentages saved on the
// context's projects. Projects without one are left out.
func StoredPercentages(pctx *domain.WeeklyPlanContext) map[string]float64 {
	out := make(map[string]float64)
	for _, proj := range pctx.Projects {
		if proj.AllocationPercentage != nil {
			out[proj.ID] = *proj.AllocationPercentage
		}
	}
	return out
}
