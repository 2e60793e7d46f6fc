package storage

import (
	"context"

	"github.com/example/weekplan/internal/domain"
)

// ProjectReader lists a user's projects.
type ProjectReader interface {
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
}

// GoalReader lists the goals of one project.
type GoalReader interface {
	ListGoalsByProject(ctx context.Context, projectID, userID string) ([]domain.Goal, error)
}

// TaskReader lists the tasks of one goal, regardless of status.
type TaskReader interface {
	ListTasksByGoal(ctx context.Context, goalID, userID string) ([]domain.Task, error)
}

// RecurringTaskReader lists a user's active recurring tasks.
type RecurringTaskReader interface {
	ListActiveRecurringTasks(ctx context.Context, userID string) ([]domain.RecurringTask, error)
}

// Catalog is the read-only view the planner needs. Implementations must be
// safe to call in any order and concurrently; each call returns all matching
// rows for the user.
type Catalog interface {
	ProjectReader
	GoalReader
	TaskReader
	RecurringTaskReader
}

// ProjectRepository provides access to Project storage.
type ProjectRepository interface {
	// Create creates a new Project.
	Create(ctx context.Context, p *domain.Project) error

	// List lists a user's Projects in insertion order.
	List(ctx context.Context, userID string) ([]domain.Project, error)
}

// GoalRepository provides access to Goal storage.
type GoalRepository interface {
	Create(ctx context.Context, g *domain.Goal) error
	ListByProject(ctx context.Context, projectID, userID string) ([]domain.Goal, error)
}

// TaskRepository provides access to Task storage.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	ListByGoal(ctx context.Context, goalID, userID string) ([]domain.Task, error)
}

// RecurringTaskRepository provides access to RecurringTask storage.
type RecurringTaskRepository interface {
	Create(ctx context.Context, r *domain.RecurringTask) error
	ListActive(ctx context.Context, userID string) ([]domain.RecurringTask, error)
}

// UnitOfWork provides transactional access to all repositories.
type UnitOfWork interface {
	// Repository accessors
	Projects() ProjectRepository
	Goals() GoalRepository
	Tasks() TaskRepository
	RecurringTasks() RecurringTaskRepository

	// Transaction control
	Commit() error
	Rollback() error
}

// Storage provides the main entry point for storage operations.
type Storage interface {
	// Begin starts a new transaction and returns a UnitOfWork.
	Begin(ctx context.Context) (UnitOfWork, error)

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}
