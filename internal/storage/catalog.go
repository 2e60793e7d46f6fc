package storage

import (
	"context"

	"github.com/example/weekplan/internal/domain"
)

// StorageCatalog adapts a transactional Storage to the read-only Catalog.
// Each read runs in its own short transaction that is always rolled back.
type StorageCatalog struct {
	store Storage
}

// NewCatalog wraps store as a Catalog.
func NewCatalog(store Storage) *StorageCatalog {
	return &StorageCatalog{store: store}
}

func (c *StorageCatalog) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	return read(ctx, c.store, func(uow UnitOfWork) ([]domain.Project, error) {
		return uow.Projects().List(ctx, userID)
	})
}

func (c *StorageCatalog) ListGoalsByProject(ctx context.Context, projectID, userID string) ([]domain.Goal, error) {
	return read(ctx, c.store, func(uow UnitOfWork) ([]domain.Goal, error) {
		return uow.Goals().ListByProject(ctx, projectID, userID)
	})
}

func (c *StorageCatalog) ListTasksByGoal(ctx context.Context, goalID, userID string) ([]domain.Task, error) {
	return read(ctx, c.store, func(uow UnitOfWork) ([]domain.Task, error) {
		return uow.Tasks().ListByGoal(ctx, goalID, userID)
	})
}

func (c *StorageCatalog) ListActiveRecurringTasks(ctx context.Context, userID string) ([]domain.RecurringTask, error) {
	return read(ctx, c.store, func(uow UnitOfWork) ([]domain.RecurringTask, error) {
		return uow.RecurringTasks().ListActive(ctx, userID)
	})
}

func read[T any](ctx context.Context, store Storage, fn func(UnitOfWork) ([]T, error)) ([]T, error) {
	uow, err := store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()
	return fn(uow)
}
