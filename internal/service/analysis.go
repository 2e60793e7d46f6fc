package service

import (
	"math"

	"github.com/example/weekplan/internal/domain"
)

// DefaultOverloadThreshold is the utilization above which a plan is flagged.
const DefaultOverloadThreshold = 0.9

const balanceEpsilon = 1e-9

// MetricsAnalyzer derives read-only load figures from a validated plan.
type MetricsAnalyzer struct {
	threshold float64
}

// NewMetricsAnalyzer creates a MetricsAnalyzer.
func NewMetricsAnalyzer(overloadThreshold float64) *MetricsAnalyzer {
	return &MetricsAnalyzer{threshold: overloadThreshold}
}

// Analyze computes capacity use and the per-project distribution. It never
// modifies plans.
func (m *MetricsAnalyzer) Analyze(plans []domain.TaskPlan, allocations []domain.ProjectAllocation, capacityHours float64) (domain.ConstraintAnalysis, domain.SolverMetrics) {
	total := 0.0
	realized := make(map[string]float64)
	for _, p := range plans {
		total += p.EstimatedHours
		realized[p.ProjectID] += p.EstimatedHours
	}

	utilization := 0.0
	if capacityHours > 0 {
		utilization = total / capacityHours
	}

	analysis := domain.ConstraintAnalysis{
		TotalTaskHours:      total,
		CapacityHours:       capacityHours,
		CapacityUtilization: utilization,
		OverloadThreshold:   m.threshold,
		OverloadRisk:        capacityHours > 0 && utilization > m.threshold,
		ProjectBalanceScore: balanceScore(allocations, realized),
	}

	metrics := domain.SolverMetrics{
		TaskCount:           len(plans),
		ProjectDistribution: distribution(plans, allocations, realized),
		DuplicateTaskIDs:    duplicates(plans),
	}
	for _, a := range allocations {
		metrics.AllocationSum += a.Percentage
	}
	return analysis, metrics
}

// balanceScore is 1 - mean(|realized - target| / max(target, eps)), clipped
// to [0,1]. It is 1 when nothing is allocated.
func balanceScore(allocations []domain.ProjectAllocation, realized map[string]float64) float64 {
	if len(allocations) == 0 {
		return 1
	}
	sum := 0.0
	for _, a := range allocations {
		sum += math.Abs(realized[a.ProjectID]-a.TargetHours) / math.Max(a.TargetHours, balanceEpsilon)
	}
	score := 1 - sum/float64(len(allocations))
	return math.Max(0, math.Min(1, score))
}

// distribution lists allocated projects first, then any other project that
// received hours, in plan order.
func distribution(plans []domain.TaskPlan, allocations []domain.ProjectAllocation, realized map[string]float64) []domain.ProjectHours {
	out := make([]domain.ProjectHours, 0, len(allocations))
	seen := make(map[string]bool, len(allocations))
	for _, a := range allocations {
		seen[a.ProjectID] = true
		out = append(out, domain.ProjectHours{
			ProjectID:     a.ProjectID,
			ProjectTitle:  a.ProjectTitle,
			RealizedHours: realized[a.ProjectID],
			TargetHours:   a.TargetHours,
			MaxHours:      a.MaxHours,
			Allocated:     true,
		})
	}
	for _, p := range plans {
		if seen[p.ProjectID] {
			continue
		}
		seen[p.ProjectID] = true
		out = append(out, domain.ProjectHours{
			ProjectID:     p.ProjectID,
			ProjectTitle:  p.ProjectTitle,
			RealizedHours: realized[p.ProjectID],
		})
	}
	return out
}

func duplicates(plans []domain.TaskPlan) []string {
	count := make(map[string]int, len(plans))
	var out []string
	for _, p := range plans {
		count[p.TaskID]++
		if count[p.TaskID] == 2 {
			out = append(out, p.TaskID)
		}
	}
	return out
}
