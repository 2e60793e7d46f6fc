// Package memory provides an in-memory Catalog for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/example/weekplan/internal/domain"
)

// Catalog is an in-memory, insertion-ordered storage.Catalog.
type Catalog struct {
	mu        sync.RWMutex
	projects  []domain.Project
	goals     []domain.Goal
	tasks     []domain.Task
	recurring []domain.RecurringTask

	// FailOn makes the named operation return the error. Keys are
	// "projects", "goals", "tasks", and "recurring".
	FailOn map[string]error

	// Calls counts invocations per operation.
	Calls map[string]int
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		FailOn: make(map[string]error),
		Calls:  make(map[string]int),
	}
}

func (c *Catalog) AddProject(p domain.Project) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = append(c.projects, p)
	return c
}

func (c *Catalog) AddGoal(g domain.Goal) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goals = append(c.goals, g)
	return c
}

func (c *Catalog) AddTask(t domain.Task) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, t)
	return c
}

func (c *Catalog) AddRecurringTask(r domain.RecurringTask) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recurring = append(c.recurring, r)
	return c
}

func (c *Catalog) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	if err := c.enter(ctx, "projects"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Project
	for _, p := range c.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Catalog) ListGoalsByProject(ctx context.Context, projectID, userID string) ([]domain.Goal, error) {
	if err := c.enter(ctx, "goals"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Goal
	for _, g := range c.goals {
		if g.ProjectID == projectID && g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (c *Catalog) ListTasksByGoal(ctx context.Context, goalID, userID string) ([]domain.Task, error) {
	if err := c.enter(ctx, "tasks"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Task
	for _, t := range c.tasks {
		if t.GoalID == goalID && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Catalog) ListActiveRecurringTasks(ctx context.Context, userID string) ([]domain.RecurringTask, error) {
	if err := c.enter(ctx, "recurring"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.RecurringTask
	for _, r := range c.recurring {
		if r.UserID == userID && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Catalog) enter(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls[op]++
	return c.FailOn[op]
}
