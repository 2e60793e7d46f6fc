package domain

import "strings"

// TaskStatus is the lifecycle state of a task as recorded by the task store.
type TaskStatus int

const (
	TaskStatusUnknown    TaskStatus = 0
	TaskStatusPending    TaskStatus = 10
	TaskStatusTodo       TaskStatus = 20
	TaskStatusInProgress TaskStatus = 30
	TaskStatusBlocked    TaskStatus = 40
	TaskStatusCompleted  TaskStatus = 50 // terminal
	TaskStatusCancelled  TaskStatus = 60 // terminal
	TaskStatusDone       TaskStatus = 70 // terminal
	TaskStatusFinished   TaskStatus = 80 // terminal
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "pending"
	case TaskStatusTodo:
		return "todo"
	case TaskStatusInProgress:
		return "in_progress"
	case TaskStatusBlocked:
		return "blocked"
	case TaskStatusCompleted:
		return "completed"
	case TaskStatusCancelled:
		return "cancelled"
	case TaskStatusDone:
		return "done"
	case TaskStatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status excludes a task from planning.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCancelled, TaskStatusDone, TaskStatusFinished:
		return true
	default:
		return false
	}
}

// ParseTaskStatus maps a stored status name onto TaskStatus. Unrecognized
// names map to TaskStatusUnknown, which is treated as active.
func ParseTaskStatus(s string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return TaskStatusPending
	case "todo", "to_do", "open":
		return TaskStatusTodo
	case "in_progress", "in-progress", "active":
		return TaskStatusInProgress
	case "blocked":
		return TaskStatusBlocked
	case "completed":
		return TaskStatusCompleted
	case "cancelled", "canceled":
		return TaskStatusCancelled
	case "done":
		return TaskStatusDone
	case "finished":
		return TaskStatusFinished
	default:
		return TaskStatusUnknown
	}
}

// Project is a top-level unit of work owned by a user.
type Project struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Title  string `json:"title"`

	// AllocationPercentage is the stored share of available hours (0-100),
	// used when a request carries no explicit allocations.
	AllocationPercentage *float64 `json:"allocation_percentage,omitempty"`
}

// Goal groups tasks under a project.
type Goal struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
}

// Task is a plannable unit of work under a goal.
type Task struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	GoalID         string     `json:"goal_id"`
	Title          string     `json:"title"`
	Status         TaskStatus `json:"status"`
	EstimatedHours float64    `json:"estimated_hours,omitempty"`
	Priority       int        `json:"priority,omitempty"`
}

// IsActive returns true if the task is eligible for planning.
func (t Task) IsActive() bool {
	return !t.Status.IsTerminal()
}

// RecurringTask is an obligation that repeats every week.
type RecurringTask struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	ProjectID      string  `json:"project_id,omitempty"`
	Title          string  `json:"title"`
	EstimatedHours float64 `json:"estimated_hours"`
	Frequency      string  `json:"frequency,omitempty"`
	Active         bool    `json:"active"`
}

// MarshalText encodes the status by name.
func (s TaskStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	*s = ParseTaskStatus(string(text))
	return nil
}
