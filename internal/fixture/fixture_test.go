package fixture

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/storage"
	"github.com/example/weekplan/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStorage {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "fixture_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestLoad(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "week.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "u1", f.UserID)
	require.Len(t, f.Projects, 2)
	require.NotNil(t, f.Projects[0].AllocationPercentage)
	assert.Equal(t, 60.0, *f.Projects[0].AllocationPercentage)
	assert.Len(t, f.Projects[0].Goals[0].Tasks, 3)
	require.Len(t, f.RecurringTasks, 2)
	assert.Nil(t, f.RecurringTasks[0].Active)
	require.NotNil(t, f.Proposal)
	assert.Len(t, f.Proposal.Candidates, 3)
	assert.Equal(t, "monday", f.Proposal.Candidates[0].SuggestedDay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseGeneratesIDs(t *testing.T) {
	f, err := Parse([]byte(`
user_id: u1
projects:
  - title: Unnamed
    goals:
      - title: Goal
        tasks:
          - title: Task
            estimated_hours: 1
recurring_tasks:
  - title: Sync
`))
	require.NoError(t, err)

	p := f.Projects[0]
	assert.True(t, strings.HasPrefix(p.ID, "project-"), p.ID)
	assert.True(t, strings.HasPrefix(p.Goals[0].ID, "goal-"), p.Goals[0].ID)
	assert.True(t, strings.HasPrefix(p.Goals[0].Tasks[0].ID, "task-"), p.Goals[0].Tasks[0].ID)
	assert.True(t, strings.HasPrefix(f.RecurringTasks[0].ID, "recurring-"), f.RecurringTasks[0].ID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "user_id: [unterminated"},
		{"missing user", "projects: []"},
		{"blank user", "user_id: '  '"},
		{"percentage above range", "user_id: u1\nprojects:\n  - id: p1\n    allocation_percentage: 120\n"},
		{"negative percentage", "user_id: u1\nprojects:\n  - id: p1\n    allocation_percentage: -5\n"},
		{"negative hours", "user_id: u1\nprojects:\n  - id: p1\n    goals:\n      - id: g1\n        tasks:\n          - id: t1\n            estimated_hours: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	f, err := Load(filepath.Join("testdata", "week.yaml"))
	require.NoError(t, err)

	n, err := Seed(ctx, store, f)
	require.NoError(t, err)
	assert.Equal(t, Counts{Projects: 2, Goals: 2, Tasks: 4, RecurringTasks: 2}, n)
	assert.Equal(t, "2 projects, 2 goals, 4 tasks, 2 recurring tasks", n.String())

	catalog := storage.NewCatalog(store)

	projects, err := catalog.ListProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, projects, 2)

	tasks, err := catalog.ListTasksByGoal(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	byID := make(map[string]domain.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	assert.Equal(t, domain.TaskStatusTodo, byID["t1"].Status)
	assert.Equal(t, domain.TaskStatusDone, byID["t3"].Status)
	assert.Equal(t, 6.0, byID["t1"].EstimatedHours)

	recurring, err := catalog.ListActiveRecurringTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, "r1", recurring[0].ID)
}

func TestSeedDuplicateWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	f, err := Parse([]byte(`
user_id: u1
projects:
  - id: p1
    title: First
  - id: p1
    title: Again
`))
	require.NoError(t, err)

	_, err = Seed(ctx, store, f)
	require.Error(t, err)

	projects, err := storage.NewCatalog(store).ListProjects(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestGateway(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "week.yaml"))
	require.NoError(t, err)

	gw, err := f.Gateway()
	require.NoError(t, err)
	p, err := gw.ProposePlan(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, p.Candidates, 3)
	assert.Equal(t, []string{"Allocator work dominates the week."}, p.Insights)

	_, err = (&Fixture{UserID: "u1"}).Gateway()
	assert.ErrorIs(t, err, ErrInvalidFixture)
}
