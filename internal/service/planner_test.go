package service

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/example/weekplan/internal/advisor"
	"github.com/example/weekplan/internal/config"
	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/observability"
	"github.com/example/weekplan/internal/storage/memory"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, whose view worker starts in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var fixedNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func pct(v float64) *float64 { return &v }

// newCatalog seeds two projects for u1. p1 has two active tasks and one
// done task; p2 has one pending task.
func newCatalog() *memory.Catalog {
	return memory.NewCatalog().
		AddProject(domain.Project{ID: "p1", UserID: "u1", Title: "Alpha", AllocationPercentage: pct(60)}).
		AddProject(domain.Project{ID: "p2", UserID: "u1", Title: "Beta"}).
		AddGoal(domain.Goal{ID: "g1", UserID: "u1", ProjectID: "p1", Title: "Launch"}).
		AddGoal(domain.Goal{ID: "g2", UserID: "u1", ProjectID: "p2", Title: "Research"}).
		AddTask(domain.Task{ID: "t1", UserID: "u1", GoalID: "g1", Title: "Write docs", Status: domain.TaskStatusTodo, EstimatedHours: 3}).
		AddTask(domain.Task{ID: "t2", UserID: "u1", GoalID: "g1", Title: "Fix bugs", Status: domain.TaskStatusInProgress, EstimatedHours: 2}).
		AddTask(domain.Task{ID: "t3", UserID: "u1", GoalID: "g1", Title: "Old work", Status: domain.TaskStatusDone, EstimatedHours: 8}).
		AddTask(domain.Task{ID: "t4", UserID: "u1", GoalID: "g2", Title: "Read papers", Status: domain.TaskStatusPending, EstimatedHours: 4}).
		AddRecurringTask(domain.RecurringTask{ID: "r1", UserID: "u1", Title: "Standup", EstimatedHours: 2.5, Frequency: "weekly", Active: true}).
		AddRecurringTask(domain.RecurringTask{ID: "r2", UserID: "u1", Title: "Retired", EstimatedHours: 1, Frequency: "weekly"})
}

func proposalOf(candidates ...domain.TaskPlanCandidate) advisor.Proposal {
	return advisor.Proposal{Candidates: candidates}
}

func testPlannerConfig() config.PlannerConfig {
	cfg := config.Default().Planner
	cfg.RetryInitialInterval = time.Millisecond
	return cfg
}

func newTestPlanner(catalog *memory.Catalog, gw advisor.Gateway, cfg config.PlannerConfig, opts ...Option) *PlannerService {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRunIDs(func() string { return "run-1" }),
	}, opts...)
	return NewPlanner(catalog, gw, cfg, nil, opts...)
}

type gatewayFunc func(ctx context.Context, s *advisor.Summary) (*advisor.Proposal, error)

func (f gatewayFunc) ProposePlan(ctx context.Context, s *advisor.Summary) (*advisor.Proposal, error) {
	return f(ctx, s)
}

func TestGenerateWeeklyPlan_SingleProject(t *testing.T) {
	gw := advisor.NewStaticGateway(proposalOf(
		domain.TaskPlanCandidate{TaskID: "t1", TaskTitle: "spoofed title", EstimatedHours: 3, Priority: 1, Rationale: "blocking launch"},
		domain.TaskPlanCandidate{TaskID: "t2", EstimatedHours: 2, Priority: 2},
	))
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID:             "u1",
		WeekStartDate:      "2024-01-01",
		CapacityHours:      40,
		ProjectFilter:      []string{"p1"},
		ProjectAllocations: map[string]float64{"p1": 100},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, fixedNow, resp.GeneratedAt)

	require.Len(t, resp.Allocations, 1)
	a := resp.Allocations[0]
	assert.Equal(t, "Alpha", a.ProjectTitle)
	assert.InDelta(t, 35.0, a.TargetHours, 1e-9)
	assert.InDelta(t, 52.5, a.MaxHours, 1e-9)
	assert.InDelta(t, 1.0, a.PriorityWeight, 1e-9)

	require.Len(t, resp.TaskPlans, 2)
	assert.Equal(t, "Write docs", resp.TaskPlans[0].TaskTitle)
	assert.Equal(t, "p1", resp.TaskPlans[0].ProjectID)
	assert.Equal(t, "blocking launch", resp.TaskPlans[0].Rationale)
	assert.InDelta(t, 5.0, resp.TotalPlannedHours, 1e-9)
	assert.InDelta(t, 0.125, resp.Analysis.CapacityUtilization, 1e-9)
	assert.False(t, resp.Analysis.OverloadRisk)
	assert.Empty(t, resp.SkippedTaskIDs)
	assert.NotNil(t, resp.SkippedTaskIDs)
	assert.Nil(t, resp.Schedule)

	require.Equal(t, 1, gw.Calls())
	summary := gw.Summaries[0]
	require.Len(t, summary.Projects, 1)
	assert.Equal(t, 2, summary.TaskCount)
}

func TestGenerateWeeklyPlan_UnknownTaskSkipped(t *testing.T) {
	gw := advisor.NewStaticGateway(proposalOf(
		domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 3},
		domain.TaskPlanCandidate{TaskID: "ghost", EstimatedHours: 5},
		domain.TaskPlanCandidate{TaskID: "t3", EstimatedHours: 1}, // done, not in context
	))
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.TaskPlans, 1)
	assert.Equal(t, "t1", resp.TaskPlans[0].TaskID)
	assert.Equal(t, []string{"ghost", "t3"}, resp.SkippedTaskIDs)
	assert.Contains(t, resp.Recommendations,
		"2 proposed task(s) were not found among active tasks and were skipped: ghost, t3.")
}

func TestGenerateWeeklyPlan_MidweekStartEchoed(t *testing.T) {
	s := newTestPlanner(newCatalog(), advisor.NewStaticGateway(advisor.Proposal{}), testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-03", CapacityHours: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", resp.WeekStartDate)
}

func TestGenerateWeeklyPlan_AllocationsOverHundred(t *testing.T) {
	s := newTestPlanner(newCatalog(), advisor.NewStaticGateway(advisor.Proposal{}), testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID:             "u1",
		WeekStartDate:      "2024-01-01",
		CapacityHours:      40,
		ProjectAllocations: map[string]float64{"p1": 100, "p2": 50},
	})
	require.NoError(t, err)
	require.Len(t, resp.Allocations, 2)
	assert.InDelta(t, 35.0, resp.Allocations[0].TargetHours, 1e-9)
	assert.InDelta(t, 17.5, resp.Allocations[1].TargetHours, 1e-9)
	for _, a := range resp.Allocations {
		assert.InDelta(t, a.TargetHours*1.5, a.MaxHours, 1e-9)
	}
	assert.InDelta(t, 150.0, resp.Metrics.AllocationSum, 1e-9)
	assert.Contains(t, resp.Insights,
		"Allocation percentages sum to 150%; targets are not normalized and may exceed available hours.")
}

func TestGenerateWeeklyPlan_Idempotent(t *testing.T) {
	proposal := proposalOf(
		domain.TaskPlanCandidate{TaskID: "t4", EstimatedHours: 4, Priority: 2},
		domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 3, Priority: 1},
		domain.TaskPlanCandidate{TaskID: "nope", EstimatedHours: 1},
	)
	req := &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 30}

	first, err := newTestPlanner(newCatalog(), advisor.NewStaticGateway(proposal), testPlannerConfig()).
		GenerateWeeklyPlan(context.Background(), req)
	require.NoError(t, err)
	second, err := newTestPlanner(newCatalog(), advisor.NewStaticGateway(proposal), testPlannerConfig()).
		GenerateWeeklyPlan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.TotalPlannedHours, second.TotalPlannedHours)
	assert.ElementsMatch(t, first.TaskPlans, second.TaskPlans)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.Insights, second.Insights)
}

func TestGenerateWeeklyPlan_ReferentialIntegrity(t *testing.T) {
	var candidates []domain.TaskPlanCandidate
	for _, id := range []string{"t1", "t2", "t3", "t4", "x1", "t1", "", "T1"} {
		candidates = append(candidates, domain.TaskPlanCandidate{TaskID: id, EstimatedHours: 1})
	}
	s := newTestPlanner(newCatalog(), advisor.NewStaticGateway(proposalOf(candidates...)), testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
	})
	require.NoError(t, err)

	active := map[string]bool{"t1": true, "t2": true, "t4": true}
	for _, p := range resp.TaskPlans {
		assert.True(t, active[p.TaskID], "plan for %q is not an active task", p.TaskID)
	}
	assert.Equal(t, len(candidates), len(resp.TaskPlans)+len(resp.SkippedTaskIDs))
	assert.Equal(t, []string{"t1"}, resp.Metrics.DuplicateTaskIDs)
	assert.Contains(t, resp.Insights, "Task(s) proposed more than once: t1.")
}

func TestGenerateWeeklyPlan_ZeroCapacity(t *testing.T) {
	gw := advisor.NewStaticGateway(proposalOf(domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 30}))
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 0,
		ProjectAllocations: map[string]float64{"p1": 50},
	})
	require.NoError(t, err)
	assert.Zero(t, resp.Analysis.CapacityUtilization)
	assert.False(t, resp.Analysis.OverloadRisk)
	assert.InDelta(t, -2.5, resp.Allocations[0].TargetHours, 1e-9)
	assert.Contains(t, resp.Recommendations,
		"Capacity of 0.0h does not cover the 5.0h meeting buffer; project targets are zero or negative.")
	assert.False(t, math.IsNaN(resp.Analysis.ProjectBalanceScore))
}

func TestGenerateWeeklyPlan_Overload(t *testing.T) {
	gw := advisor.NewStaticGateway(proposalOf(
		domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 6},
		domain.TaskPlanCandidate{TaskID: "t4", EstimatedHours: 4},
	))
	metrics := observability.NewMetrics()
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig(), WithMetrics(metrics))

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 10,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.Analysis.OverloadRisk)
	assert.InDelta(t, 1.0, resp.Analysis.CapacityUtilization, 1e-9)
	assert.Contains(t, resp.Recommendations[0], "above the 90% overload threshold")
	assert.Equal(t, int64(1), metrics.OverloadedPlans().Get())
	assert.Equal(t, int64(1), metrics.Runs().WithLabels(observability.OutcomeSuccess).Get())
	assert.Zero(t, metrics.ActiveRuns().Get())
}

func TestGenerateWeeklyPlan_EmptyContext(t *testing.T) {
	gw := advisor.NewStaticGateway(proposalOf(domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 1}))
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "nobody", WeekStartDate: "2024-01-01", CapacityHours: 40,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.TaskPlans)
	assert.Empty(t, resp.TaskPlans)
	assert.Zero(t, resp.TotalPlannedHours)
	assert.Equal(t, 0, gw.Calls())
	assert.Contains(t, resp.Recommendations,
		"No tasks were planned for this week. Add active tasks or widen the project filter.")
}

func TestGenerateWeeklyPlan_StoredAllocationsAndRecurring(t *testing.T) {
	gw := advisor.NewStaticGateway(advisor.Proposal{
		Candidates: []domain.TaskPlanCandidate{{TaskID: "t1", EstimatedHours: 3}},
		Insights:   []string{"Front-load the docs work."},
	})
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID:                   "u1",
		WeekStartDate:            "2024-01-01",
		CapacityHours:            45,
		SelectedRecurringTaskIDs: []string{"r1", "r2", "missing", "r1"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, "p1", resp.Allocations[0].ProjectID)
	assert.InDelta(t, 24.0, resp.Allocations[0].TargetHours, 1e-9)

	require.Len(t, resp.RecurringCommitments, 1)
	assert.Equal(t, "r1", resp.RecurringCommitments[0].ID)
	assert.InDelta(t, 2.5, gw.Summaries[0].RecurringHours, 1e-9)
	assert.Contains(t, resp.Insights, "Selected recurring commitments take 2.5h.")
	assert.Equal(t, "Front-load the docs work.", resp.Insights[len(resp.Insights)-1])
}

func TestGenerateWeeklyPlan_Schedule(t *testing.T) {
	cfg := testPlannerConfig()
	cfg.Schedule.Enabled = true
	cfg.Schedule.DailyCapHours = 4
	gw := advisor.NewStaticGateway(proposalOf(
		domain.TaskPlanCandidate{TaskID: "t4", EstimatedHours: 4, Priority: 2},
		domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 3, Priority: 1},
	))
	s := newTestPlanner(newCatalog(), gw, cfg)

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Schedule)
	assert.True(t, resp.Schedule.Complete)

	got := resp.Schedule.Assignments
	require.Len(t, got, 3)
	assert.Equal(t, "t1", got[0].TaskID)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), got[0].Start)
	assert.Equal(t, "t4", got[1].TaskID)
	assert.Equal(t, "monday", got[1].Day)
	assert.InDelta(t, 1.0, got[1].Hours, 1e-9)
	assert.Equal(t, "tuesday", got[2].Day)
	assert.InDelta(t, 3.0, got[2].Hours, 1e-9)
}

func TestGenerateWeeklyPlan_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  *GenerateWeeklyPlanRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing user", req: &GenerateWeeklyPlanRequest{WeekStartDate: "2024-01-01"}},
		{name: "missing date", req: &GenerateWeeklyPlanRequest{UserID: "u1"}},
		{name: "impossible date", req: &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "2024-02-30"}},
		{name: "not a date", req: &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "next monday"}},
		{name: "negative capacity", req: &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: -1}},
		{name: "nan capacity", req: &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: math.NaN()}},
		{name: "allocation over 100", req: &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "2024-01-01", ProjectAllocations: map[string]float64{"p1": 120}}},
		{name: "negative allocation", req: &GenerateWeeklyPlanRequest{UserID: "u1", WeekStartDate: "2024-01-01", ProjectAllocations: map[string]float64{"p1": -5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newCatalog()
			gw := advisor.NewStaticGateway(advisor.Proposal{})
			metrics := observability.NewMetrics()
			s := newTestPlanner(catalog, gw, testPlannerConfig(), WithMetrics(metrics))

			resp, err := s.GenerateWeeklyPlan(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, catalog.Calls["projects"])
			assert.Zero(t, gw.Calls())
			assert.Equal(t, int64(1), metrics.Runs().WithLabels(observability.OutcomeInputError).Get())
		})
	}
}

func TestGenerateWeeklyPlan_CatalogFailure(t *testing.T) {
	catalog := newCatalog()
	catalog.FailOn["tasks"] = errors.New("database is locked")
	gw := advisor.NewStaticGateway(advisor.Proposal{})
	s := newTestPlanner(catalog, gw, testPlannerConfig())

	_, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
	})
	assert.ErrorIs(t, err, domain.ErrCatalog)
	assert.ErrorContains(t, err, "database is locked")
	assert.Zero(t, gw.Calls())
}

func TestGenerateWeeklyPlan_ExternalFailures(t *testing.T) {
	retryable := func() error {
		return domain.NewExternalServiceError("static", "propose", errors.New("503 unavailable"))
	}
	permanent := &domain.ExternalServiceError{Service: "static", Op: "propose", Err: errors.New("invalid api key")}
	ok := proposalOf(domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 3})

	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{name: "retry then success", errs: []error{retryable()}, retries: 1, wantCalls: 2},
		{name: "retries exhausted", errs: []error{retryable(), retryable()}, retries: 1, wantErr: true, wantCalls: 2},
		{name: "no retries configured", errs: []error{retryable()}, retries: 0, wantErr: true, wantCalls: 1},
		{name: "permanent failure", errs: []error{permanent}, retries: 3, wantErr: true, wantCalls: 1},
		{name: "plain error is external", errs: []error{errors.New("boom")}, retries: 3, wantErr: true, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := advisor.NewStaticGateway(ok)
			gw.Errs = tt.errs
			cfg := testPlannerConfig()
			cfg.ProposalRetries = tt.retries
			metrics := observability.NewMetrics()
			s := newTestPlanner(newCatalog(), gw, cfg, WithMetrics(metrics))

			resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
				UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
			})
			assert.Equal(t, tt.wantCalls, gw.Calls())
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, resp.TaskPlans, 1)
				return
			}
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, domain.ErrExternalService)
			assert.NotErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, int64(1), metrics.Runs().WithLabels(observability.OutcomeExternalError).Get())
		})
	}
}

func TestGenerateWeeklyPlan_AttemptTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	gw := gatewayFunc(func(ctx context.Context, _ *advisor.Summary) (*advisor.Proposal, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &advisor.Proposal{Candidates: []domain.TaskPlanCandidate{{TaskID: "t2", EstimatedHours: 2}}}, nil
	})
	cfg := testPlannerConfig()
	cfg.ProposalTimeout = 20 * time.Millisecond
	s := newTestPlanner(newCatalog(), gw, cfg)

	resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
		UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, resp.TaskPlans, 1)
}

func TestGenerateWeeklyPlan_Cancelled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		gw := advisor.NewStaticGateway(advisor.Proposal{})
		s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

		_, err := s.GenerateWeeklyPlan(ctx, &GenerateWeeklyPlanRequest{
			UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, gw.Calls())
	})

	t.Run("during proposal", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var calls atomic.Int32
		gw := gatewayFunc(func(ctx context.Context, _ *advisor.Summary) (*advisor.Proposal, error) {
			calls.Add(1)
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		})
		metrics := observability.NewMetrics()
		s := newTestPlanner(newCatalog(), gw, testPlannerConfig(), WithMetrics(metrics))

		resp, err := s.GenerateWeeklyPlan(ctx, &GenerateWeeklyPlanRequest{
			UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
		})
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, int64(1), metrics.Runs().WithLabels(observability.OutcomeCancelled).Get())
	})
}

func TestGenerateWeeklyPlan_ConcurrentRuns(t *testing.T) {
	gw := advisor.NewStaticGateway(proposalOf(domain.TaskPlanCandidate{TaskID: "t1", EstimatedHours: 3}))
	s := newTestPlanner(newCatalog(), gw, testPlannerConfig())

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			resp, err := s.GenerateWeeklyPlan(context.Background(), &GenerateWeeklyPlanRequest{
				UserID: "u1", WeekStartDate: "2024-01-01", CapacityHours: 40,
			})
			if err == nil && resp.TotalPlannedHours != 3 {
				err = errors.New("unexpected total")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, 8, gw.Calls())
}
