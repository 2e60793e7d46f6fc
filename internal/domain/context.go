package domain

import (
	"fmt"
	"strings"
	"time"
)

// WeekStartLayout is the ISO-8601 calendar date layout used for week starts.
const WeekStartLayout = "2006-01-02"

// ParseWeekStart parses an ISO-8601 calendar date. Any weekday is accepted;
// impossible dates such as 2024-02-30 are rejected.
func ParseWeekStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: week_start_date is required", ErrInvalidInput)
	}
	t, err := time.Parse(WeekStartLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: week_start_date %q is not a valid calendar date", ErrInvalidInput, s)
	}
	return t, nil
}

// WeeklyPlanContext is the working set for one user and one week.
// It is built once by the context assembler and read-only afterwards.
type WeeklyPlanContext struct {
	UserID                   string
	WeekStart                time.Time
	Projects                 []Project
	Goals                    []Goal
	Tasks                    []Task
	RecurringTasks           []RecurringTask
	SelectedRecurringTaskIDs []string
	CapacityHours            float64
	Preferences              map[string]any

	projectIdx   map[string]int
	goalIdx      map[string]int
	taskIdx      map[string]int
	recurringIdx map[string]int
}

// NewWeeklyPlanContext builds a context and its lookup indexes. The slices
// are owned by the returned context.
func NewWeeklyPlanContext(
	userID string,
	weekStart time.Time,
	projects []Project,
	goals []Goal,
	tasks []Task,
	recurring []RecurringTask,
	selectedRecurring []string,
	capacityHours float64,
	preferences map[string]any,
) *WeeklyPlanContext {
	c := &WeeklyPlanContext{
		UserID:                   userID,
		WeekStart:                weekStart,
		Projects:                 projects,
		Goals:                    goals,
		Tasks:                    tasks,
		RecurringTasks:           recurring,
		SelectedRecurringTaskIDs: selectedRecurring,
		CapacityHours:            capacityHours,
		Preferences:              preferences,
		projectIdx:               make(map[string]int, len(projects)),
		goalIdx:                  make(map[string]int, len(goals)),
		taskIdx:                  make(map[string]int, len(tasks)),
		recurringIdx:             make(map[string]int, len(recurring)),
	}
	for i, p := range projects {
		c.projectIdx[p.ID] = i
	}
	for i, g := range goals {
		c.goalIdx[g.ID] = i
	}
	for i, t := range tasks {
		c.taskIdx[t.ID] = i
	}
	for i, r := range recurring {
		c.recurringIdx[r.ID] = i
	}
	return c
}

// WeekStartDate returns the week start formatted as an ISO-8601 date.
func (c *WeeklyPlanContext) WeekStartDate() string {
	return c.WeekStart.Format(WeekStartLayout)
}

// Project looks up a project by exact ID.
func (c *WeeklyPlanContext) Project(id string) (Project, bool) {
	i, ok := c.projectIdx[id]
	if !ok {
		return Project{}, false
	}
	return c.Projects[i], true
}

// Goal looks up a goal by exact ID.
func (c *WeeklyPlanContext) Goal(id string) (Goal, bool) {
	i, ok := c.goalIdx[id]
	if !ok {
		return Goal{}, false
	}
	return c.Goals[i], true
}

// Task looks up an active task by exact ID.
func (c *WeeklyPlanContext) Task(id string) (Task, bool) {
	i, ok := c.taskIdx[id]
	if !ok {
		return Task{}, false
	}
	return c.Tasks[i], true
}

// ProjectForTask resolves the project owning a task through its goal.
func (c *WeeklyPlanContext) ProjectForTask(taskID string) (Project, bool) {
	t, ok := c.Task(taskID)
	if !ok {
		return Project{}, false
	}
	g, ok := c.Goal(t.GoalID)
	if !ok {
		return Project{}, false
	}
	return c.Project(g.ProjectID)
}

// SelectedRecurringTasks returns the selected recurring tasks in selection order.
func (c *WeeklyPlanContext) SelectedRecurringTasks() []RecurringTask {
	out := make([]RecurringTask, 0, len(c.SelectedRecurringTaskIDs))
	for _, id := range c.SelectedRecurringTaskIDs {
		if i, ok := c.recurringIdx[id]; ok {
			out = append(out, c.RecurringTasks[i])
		}
	}
	return out
}

// HasRecurringTask reports whether id names an active recurring task.
func (c *WeeklyPlanContext) HasRecurringTask(id string) bool {
	_, ok := c.recurringIdx[id]
	return ok
}
