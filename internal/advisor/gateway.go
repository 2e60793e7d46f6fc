// Package advisor talks to the external advisory service that proposes which
// tasks to work on. Its output is a suggestion only; callers validate every
// candidate against their own task set.
package advisor

import (
	"context"

	"github.com/example/weekplan/internal/domain"
)

// Gateway proposes task plans for a week.
type Gateway interface {
	// ProposePlan performs a single call to the advisory service. Failures are
	// reported as *domain.ExternalServiceError.
	ProposePlan(ctx context.Context, summary *Summary) (*Proposal, error)
}

// Proposal is the advisory service's answer.
type Proposal struct {
	Candidates []domain.TaskPlanCandidate `json:"candidates" yaml:"candidates"`
	Insights   []string                   `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// Summary is the payload sent to the advisory service. It carries only the
// fields the service needs, never raw context objects.
type Summary struct {
	UserID               string             `json:"user_id"`
	WeekStartDate        string             `json:"week_start_date"`
	CapacityHours        float64            `json:"capacity_hours"`
	Projects             []ProjectSummary   `json:"projects"`
	RecurringCommitments []RecurringSummary `json:"recurring_commitments,omitempty"`
	RecurringHours       float64            `json:"recurring_hours"`
	Preferences          map[string]any     `json:"preferences,omitempty"`
	TaskCount            int                `json:"task_count"`
}

// ProjectSummary describes one project and its allocation bounds.
type ProjectSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Percentage  float64       `json:"allocation_percentage,omitempty"`
	TargetHours float64       `json:"target_hours,omitempty"`
	MaxHours    float64       `json:"max_hours,omitempty"`
	Goals       []GoalSummary `json:"goals"`
}

// GoalSummary lists the active tasks of a goal.
type GoalSummary struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Tasks []TaskSummary `json:"tasks"`
}

// TaskSummary is the per-task view offered to the service.
type TaskSummary struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
	Priority       int     `json:"priority,omitempty"`
}

// RecurringSummary is a selected weekly obligation.
type RecurringSummary struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// BuildSummary condenses a planning context and its allocations.
func BuildSummary(pctx *domain.WeeklyPlanContext, allocations []domain.ProjectAllocation) *Summary {
	alloc := make(map[string]domain.ProjectAllocation, len(allocations))
	for _, a := range allocations {
		alloc[a.ProjectID] = a
	}

	tasksByGoal := make(map[string][]TaskSummary)
	for _, t := range pctx.Tasks {
		tasksByGoal[t.GoalID] = append(tasksByGoal[t.GoalID], TaskSummary{
			ID:             t.ID,
			Title:          t.Title,
			Status:         t.Status.String(),
			EstimatedHours: t.EstimatedHours,
			Priority:       t.Priority,
		})
	}
	goalsByProject := make(map[string][]GoalSummary)
	for _, g := range pctx.Goals {
		goalsByProject[g.ProjectID] = append(goalsByProject[g.ProjectID], GoalSummary{
			ID:    g.ID,
			Title: g.Title,
			Tasks: tasksByGoal[g.ID],
		})
	}

	s := &Summary{
		UserID:        pctx.UserID,
		WeekStartDate: pctx.WeekStartDate(),
		CapacityHours: pctx.CapacityHours,
		Preferences:   pctx.Preferences,
		TaskCount:     len(pctx.Tasks),
	}
	for _, p := range pctx.Projects {
		ps := ProjectSummary{ID: p.ID, Title: p.Title, Goals: goalsByProject[p.ID]}
		if a, ok := alloc[p.ID]; ok {
			ps.Percentage = a.Percentage
			ps.TargetHours = a.TargetHours
			ps.MaxHours = a.MaxHours
		}
		s.Projects = append(s.Projects, ps)
	}
	for _, r := range pctx.SelectedRecurringTasks() {
		s.RecurringCommitments = append(s.RecurringCommitments, RecurringSummary{
			ID:             r.ID,
			Title:          r.Title,
			EstimatedHours: r.EstimatedHours,
		})
		s.RecurringHours += r.EstimatedHours
	}
	return s
}
