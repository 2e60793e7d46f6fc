package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/logging"
	"github.com/example/weekplan/internal/storage"
)

// maxConcurrentFetches bounds catalog calls in flight for one run.
const maxConcurrentFetches = 4

// AssembleRequest is the input of ContextAssembler.Assemble.
type AssembleRequest struct {
	UserID    string
	WeekStart time.Time

	// ProjectFilter restricts the run to these project IDs. Empty means all
	// projects. Unknown IDs are ignored.
	ProjectFilter []string

	SelectedRecurringTaskIDs []string
	CapacityHours            float64
	Preferences              map[string]any
}

// ContextAssembler gathers the projects, goals, active tasks and recurring
// tasks of one user into a WeeklyPlanContext.
type ContextAssembler struct {
	catalog storage.Catalog
	logger  *zap.Logger
}

// NewContextAssembler creates a ContextAssembler.
func NewContextAssembler(catalog storage.Catalog, logger *zap.Logger) *ContextAssembler {
	return &ContextAssembler{catalog: catalog, logger: logging.OrNop(logger)}
}

// Assemble builds the planning context. An empty context is valid. Catalog
// failures are returned wrapped in domain.ErrCatalog.
func (a *ContextAssembler) Assemble(ctx context.Context, req AssembleRequest) (*domain.WeeklyPlanContext, error) {
	log := a.logger.With(zap.String("user_id", req.UserID))

	all, err := a.catalog.ListProjects(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: list projects: %w", domain.ErrCatalog, err)
	}
	projects := filterProjects(all, req.ProjectFilter)
	log.Debug("projects fetched",
		zap.Int("fetched", len(all)),
		zap.Int("retained", len(projects)),
		zap.Int("filter", len(req.ProjectFilter)))

	// Goals and recurring tasks are independent; fetch them together.
	var recurring []domain.RecurringTask
	goalsPerProject := make([][]domain.Goal, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	g.Go(func() error {
		var err error
		recurring, err = a.catalog.ListActiveRecurringTasks(gctx, req.UserID)
		if err != nil {
			return fmt.Errorf("%w: list recurring tasks: %w", domain.ErrCatalog, err)
		}
		return nil
	})
	for i, p := range projects {
		g.Go(func() error {
			goals, err := a.catalog.ListGoalsByProject(gctx, p.ID, req.UserID)
			if err != nil {
				return fmt.Errorf("%w: list goals of project %s: %w", domain.ErrCatalog, p.ID, err)
			}
			goalsPerProject[i] = goals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	goals := flatten(goalsPerProject)
	log.Debug("goals fetched", zap.Int("goals", len(goals)))

	tasksPerGoal := make([][]domain.Task, len(goals))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, goal := range goals {
		g.Go(func() error {
			tasks, err := a.catalog.ListTasksByGoal(gctx, goal.ID, req.UserID)
			if err != nil {
				return fmt.Errorf("%w: list tasks of goal %s: %w", domain.ErrCatalog, goal.ID, err)
			}
			tasksPerGoal[i] = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fetched := flatten(tasksPerGoal)
	tasks := make([]domain.Task, 0, len(fetched))
	for _, t := range fetched {
		if t.IsActive() {
			tasks = append(tasks, t)
		}
	}
	log.Debug("tasks fetched",
		zap.Int("fetched", len(fetched)),
		zap.Int("active", len(tasks)))

	selected := a.selectRecurring(log, recurring, req.SelectedRecurringTaskIDs)

	log.Info("planning context assembled",
		zap.Int("projects", len(projects)),
		zap.Int("goals", len(goals)),
		zap.Int("tasks", len(tasks)),
		zap.Int("recurring_tasks", len(recurring)),
		zap.Int("recurring_selected", len(selected)))

	return domain.NewWeeklyPlanContext(
		req.UserID,
		req.WeekStart,
		projects,
		goals,
		tasks,
		recurring,
		selected,
		req.CapacityHours,
		req.Preferences,
	), nil
}

// selectRecurring keeps the requested IDs that name an active recurring task,
// in request order and without repeats.
func (a *ContextAssembler) selectRecurring(log *zap.Logger, active []domain.RecurringTask, requested []string) []string {
	known := make(map[string]bool, len(active))
	for _, r := range active {
		known[r.ID] = true
	}
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !known[id] {
			log.Warn("selected recurring task is not active, dropping", zap.String("recurring_task_id", id))
			continue
		}
		out = append(out, id)
	}
	return out
}

func filterProjects(projects []domain.Project, filter []string) []domain.Project {
	if len(filter) == 0 {
		return projects
	}
	keep := make(map[string]bool, len(filter))
	for _, id := range filter {
		keep[id] = true
	}
	out := make([]domain.Project, 0, len(filter))
	for _, p := range projects {
		if keep[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func flatten[T any](groups [][]T) []T {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]T, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
