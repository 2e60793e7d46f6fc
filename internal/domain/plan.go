package domain

import "time"

// MaxHoursFactor caps a project's hours relative to its target.
const MaxHoursFactor = 1.5

// ProjectAllocation is the hour budget derived for one project in one run.
type ProjectAllocation struct {
	ProjectID      string  `json:"project_id"`
	ProjectTitle   string  `json:"project_title"`
	Percentage     float64 `json:"percentage"`
	TargetHours    float64 `json:"target_hours"`
	MaxHours       float64 `json:"max_hours"`
	PriorityWeight float64 `json:"priority_weight"`
}

// TaskPlanCandidate is an unverified proposal from the advisory service.
type TaskPlanCandidate struct {
	TaskID         string  `json:"task_id" yaml:"task_id"`
	TaskTitle      string  `json:"task_title,omitempty" yaml:"task_title,omitempty"`
	EstimatedHours float64 `json:"estimated_hours" yaml:"estimated_hours"`
	Priority       int     `json:"priority" yaml:"priority"`
	Rationale      string  `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	SuggestedDay   string  `json:"suggested_day,omitempty" yaml:"suggested_day,omitempty"`
	SuggestedSlot  string  `json:"suggested_slot,omitempty" yaml:"suggested_slot,omitempty"`
}

// TaskPlan is a candidate confirmed to reference a task in the context.
// TaskTitle and the project fields come from the context, never the proposal.
type TaskPlan struct {
	TaskID         string  `json:"task_id"`
	TaskTitle      string  `json:"task_title"`
	GoalID         string  `json:"goal_id"`
	ProjectID      string  `json:"project_id"`
	ProjectTitle   string  `json:"project_title"`
	EstimatedHours float64 `json:"estimated_hours"`
	Priority       int     `json:"priority"`
	Rationale      string  `json:"rationale,omitempty"`
	SuggestedDay   string  `json:"suggested_day,omitempty"`
	SuggestedSlot  string  `json:"suggested_slot,omitempty"`
}

// ConstraintAnalysis summarizes plan load against capacity.
type ConstraintAnalysis struct {
	TotalTaskHours      float64 `json:"total_task_hours"`
	CapacityHours       float64 `json:"capacity_hours"`
	CapacityUtilization float64 `json:"capacity_utilization"`
	OverloadThreshold   float64 `json:"overload_threshold"`
	OverloadRisk        bool    `json:"overload_risk"`
	ProjectBalanceScore float64 `json:"project_balance_score"`
}

// ProjectHours is the realized load of one project.
type ProjectHours struct {
	ProjectID     string  `json:"project_id"`
	ProjectTitle  string  `json:"project_title"`
	RealizedHours float64 `json:"realized_hours"`
	TargetHours   float64 `json:"target_hours"`
	MaxHours      float64 `json:"max_hours"`
	Allocated     bool    `json:"allocated"`
}

// SolverMetrics describes how the validated plan distributes across projects.
type SolverMetrics struct {
	TaskCount           int            `json:"task_count"`
	ProjectDistribution []ProjectHours `json:"project_distribution"`
	DuplicateTaskIDs    []string       `json:"duplicate_task_ids,omitempty"`
	AllocationSum       float64        `json:"allocation_percentage_sum"`
}

// SlotAssignment places part or all of a task's hours on one day.
type SlotAssignment struct {
	TaskID string    `json:"task_id"`
	Day    string    `json:"day"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Hours  float64   `json:"hours"`
}

// UnplacedTask is the remainder of a task the scheduler could not fit.
type UnplacedTask struct {
	TaskID string  `json:"task_id"`
	Hours  float64 `json:"hours"`
}

// ScheduleResult is the output of slot allocation. Complete is false when any
// hours are unplaced.
type ScheduleResult struct {
	Assignments     []SlotAssignment `json:"assignments"`
	Unplaced        []UnplacedTask   `json:"unplaced,omitempty"`
	Complete        bool             `json:"complete"`
	BudgetExhausted bool             `json:"budget_exhausted,omitempty"`
}

// WeeklyPlanResponse is the result of one planning run.
type WeeklyPlanResponse struct {
	RunID                string              `json:"run_id"`
	Success              bool                `json:"success"`
	WeekStartDate        string              `json:"week_start_date"`
	TotalPlannedHours    float64             `json:"total_planned_hours"`
	TaskPlans            []TaskPlan          `json:"task_plans"`
	SkippedTaskIDs       []string            `json:"skipped_task_ids"`
	Allocations          []ProjectAllocation `json:"allocations"`
	RecurringCommitments []RecurringTask     `json:"recurring_commitments,omitempty"`
	Analysis             ConstraintAnalysis  `json:"analysis"`
	Metrics              SolverMetrics       `json:"metrics"`
	Schedule             *ScheduleResult     `json:"schedule,omitempty"`
	Recommendations      []string            `json:"recommendations"`
	Insights             []string            `json:"insights"`
	GeneratedAt          time.Time           `json:"generated_at"`
}
