package service

import (
	"fmt"
	"strings"

	"github.com/example/weekplan/internal/domain"
)

const (
	underUtilization = 0.5
	underTarget      = 0.5
)

// narrative holds the figures the response text is generated from.
type narrative struct {
	analysis       domain.ConstraintAnalysis
	metrics        domain.SolverMetrics
	skipped        []string
	bufferHours    float64
	recurringHours float64
	schedule       *domain.ScheduleResult
	advisor        []string
}

// recommendations are actionable notes. The output is deterministic for a
// given input.
func (n narrative) recommendations() []string {
	a := n.analysis
	out := []string{}

	if a.CapacityHours < n.bufferHours {
		out = append(out, fmt.Sprintf(
			"Capacity of %.1fh does not cover the %.1fh meeting buffer; project targets are zero or negative.",
			a.CapacityHours, n.bufferHours))
	}

	switch {
	case n.metrics.TaskCount == 0:
		out = append(out, "No tasks were planned for this week. Add active tasks or widen the project filter.")
	case a.OverloadRisk:
		out = append(out, fmt.Sprintf(
			"Planned %.1fh is %.0f%% of capacity (%.1fh), above the %.0f%% overload threshold. Consider deferring lower-priority tasks.",
			a.TotalTaskHours, a.CapacityUtilization*100, a.CapacityHours, a.OverloadThreshold*100))
	case a.CapacityHours > 0 && a.CapacityUtilization < underUtilization:
		out = append(out, fmt.Sprintf(
			"Planned %.1fh uses only %.0f%% of capacity (%.1fh). Consider pulling in more tasks.",
			a.TotalTaskHours, a.CapacityUtilization*100, a.CapacityHours))
	}

	if len(n.skipped) > 0 {
		out = append(out, fmt.Sprintf(
			"%d proposed task(s) were not found among active tasks and were skipped: %s.",
			len(n.skipped), strings.Join(n.skipped, ", ")))
	}

	for _, p := range n.metrics.ProjectDistribution {
		if !p.Allocated {
			continue
		}
		switch {
		case p.RealizedHours > p.MaxHours && p.MaxHours >= 0:
			out = append(out, fmt.Sprintf(
				"Project %q has %.1fh planned, over its %.1fh maximum.",
				p.ProjectTitle, p.RealizedHours, p.MaxHours))
		case p.TargetHours > 0 && p.RealizedHours < underTarget*p.TargetHours:
			out = append(out, fmt.Sprintf(
				"Project %q has %.1fh planned against a %.1fh target.",
				p.ProjectTitle, p.RealizedHours, p.TargetHours))
		}
	}

	if n.schedule != nil && !n.schedule.Complete {
		unplaced := 0.0
		for _, u := range n.schedule.Unplaced {
			unplaced += u.Hours
		}
		out = append(out, fmt.Sprintf(
			"%.1fh across %d task(s) could not be placed within the daily caps.",
			unplaced, len(n.schedule.Unplaced)))
	}
	return out
}

// insights are informational notes, followed by any the advisory service
// supplied.
func (n narrative) insights() []string {
	a := n.analysis
	out := []string{}

	if a.CapacityHours > 0 {
		out = append(out, fmt.Sprintf("Capacity utilization is %.0f%% (%.1fh of %.1fh).",
			a.CapacityUtilization*100, a.TotalTaskHours, a.CapacityHours))
	}
	if len(n.metrics.ProjectDistribution) > 0 {
		out = append(out, fmt.Sprintf("Project balance score is %.2f.", a.ProjectBalanceScore))
	}
	if n.metrics.AllocationSum > 100 {
		out = append(out, fmt.Sprintf(
			"Allocation percentages sum to %.0f%%; targets are not normalized and may exceed available hours.",
			n.metrics.AllocationSum))
	}
	if len(n.metrics.DuplicateTaskIDs) > 0 {
		out = append(out, fmt.Sprintf("Task(s) proposed more than once: %s.",
			strings.Join(n.metrics.DuplicateTaskIDs, ", ")))
	}
	if n.recurringHours > 0 {
		out = append(out, fmt.Sprintf("Selected recurring commitments take %.1fh.", n.recurringHours))
	}
	if n.schedule != nil && n.schedule.BudgetExhausted {
		out = append(out, "Scheduling stopped early at its search budget; the schedule is partial.")
	}

	for _, s := range n.advisor {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
