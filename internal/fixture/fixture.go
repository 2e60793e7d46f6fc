// Package fixture loads YAML descriptions of a user's projects, goals, tasks
// and recurring tasks, and seeds them into storage. A fixture may also carry
// a canned advisory proposal for offline runs.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/weekplan/internal/advisor"
	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/storage"
	"github.com/example/weekplan/pkg/id"
)

// ErrInvalidFixture is returned when a fixture cannot be used.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is the YAML document.
type Fixture struct {
	UserID         string            `yaml:"user_id"`
	Projects       []ProjectSpec     `yaml:"projects"`
	RecurringTasks []RecurringSpec   `yaml:"recurring_tasks"`
	Proposal       *advisor.Proposal `yaml:"proposal"`
}

type ProjectSpec struct {
	ID                   string     `yaml:"id"`
	Title                string     `yaml:"title"`
	AllocationPercentage *float64   `yaml:"allocation_percentage"`
	Goals                []GoalSpec `yaml:"goals"`
}

type GoalSpec struct {
	ID    string     `yaml:"id"`
	Title string     `yaml:"title"`
	Tasks []TaskSpec `yaml:"tasks"`
}

type TaskSpec struct {
	ID             string  `yaml:"id"`
	Title          string  `yaml:"title"`
	Status         string  `yaml:"status"`
	EstimatedHours float64 `yaml:"estimated_hours"`
	Priority       int     `yaml:"priority"`
}

type RecurringSpec struct {
	ID             string  `yaml:"id"`
	ProjectID      string  `yaml:"project_id"`
	Title          string  `yaml:"title"`
	EstimatedHours float64 `yaml:"estimated_hours"`
	Frequency      string  `yaml:"frequency"`

	// Active defaults to true.
	Active *bool `yaml:"active"`
}

// Load reads and parses the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a fixture and fills in missing IDs.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if strings.TrimSpace(f.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidFixture)
	}

	for i := range f.Projects {
		p := &f.Projects[i]
		if p.ID == "" {
			p.ID = id.NewShort("project")
		}
		if pct := p.AllocationPercentage; pct != nil && (*pct < 0 || *pct > 100) {
			return nil, fmt.Errorf("%w: project %s allocation_percentage %v is outside [0,100]", ErrInvalidFixture, p.ID, *pct)
		}
		for j := range p.Goals {
			g := &p.Goals[j]
			if g.ID == "" {
				g.ID = id.NewShort("goal")
			}
			for k := range g.Tasks {
				t := &g.Tasks[k]
				if t.ID == "" {
					t.ID = id.NewShort("task")
				}
				if t.EstimatedHours < 0 {
					return nil, fmt.Errorf("%w: task %s has negative estimated_hours", ErrInvalidFixture, t.ID)
				}
			}
		}
	}
	for i := range f.RecurringTasks {
		if f.RecurringTasks[i].ID == "" {
			f.RecurringTasks[i].ID = id.NewShort("recurring")
		}
	}
	return &f, nil
}

// Counts reports how many records Seed wrote.
type Counts struct {
	Projects       int
	Goals          int
	Tasks          int
	RecurringTasks int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d projects, %d goals, %d tasks, %d recurring tasks",
		c.Projects, c.Goals, c.Tasks, c.RecurringTasks)
}

// Seed writes the fixture in one transaction. Nothing is written on error.
func Seed(ctx context.Context, store storage.Storage, f *Fixture) (Counts, error) {
	var n Counts

	uow, err := store.Begin(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for _, ps := range f.Projects {
		if err := uow.Projects().Create(ctx, &domain.Project{
			ID:                   ps.ID,
			UserID:               f.UserID,
			Title:                ps.Title,
			AllocationPercentage: ps.AllocationPercentage,
		}); err != nil {
			return Counts{}, fmt.Errorf("failed to create project %s: %w", ps.ID, err)
		}
		n.Projects++

		for _, gs := range ps.Goals {
			if err := uow.Goals().Create(ctx, &domain.Goal{
				ID:        gs.ID,
				UserID:    f.UserID,
				ProjectID: ps.ID,
				Title:     gs.Title,
			}); err != nil {
				return Counts{}, fmt.Errorf("failed to create goal %s: %w", gs.ID, err)
			}
			n.Goals++

			for _, ts := range gs.Tasks {
				if err := uow.Tasks().Create(ctx, &domain.Task{
					ID:             ts.ID,
					UserID:         f.UserID,
					GoalID:         gs.ID,
					Title:          ts.Title,
					Status:         domain.ParseTaskStatus(ts.Status),
					EstimatedHours: ts.EstimatedHours,
					Priority:       ts.Priority,
				}); err != nil {
					return Counts{}, fmt.Errorf("failed to create task %s: %w", ts.ID, err)
				}
				n.Tasks++
			}
		}
	}

	for _, rs := range f.RecurringTasks {
		active := rs.Active == nil || *rs.Active
		if err := uow.RecurringTasks().Create(ctx, &domain.RecurringTask{
			ID:             rs.ID,
			UserID:         f.UserID,
			ProjectID:      rs.ProjectID,
			Title:          rs.Title,
			EstimatedHours: rs.EstimatedHours,
			Frequency:      rs.Frequency,
			Active:         active,
		}); err != nil {
			return Counts{}, fmt.Errorf("failed to create recurring task %s: %w", rs.ID, err)
		}
		n.RecurringTasks++
	}

	if err := uow.Commit(); err != nil {
		return Counts{}, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

// Gateway returns a static advisory gateway serving the fixture's proposal,
// or an error when the fixture has none.
func (f *Fixture) Gateway() (*advisor.StaticGateway, error) {
	if f.Proposal == nil {
		return nil, fmt.Errorf("%w: no proposal section", ErrInvalidFixture)
	}
	return advisor.NewStaticGateway(*f.Proposal), nil
}
