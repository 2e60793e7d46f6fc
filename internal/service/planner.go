// Package service implements the weekly planning pipeline: context assembly,
// hour allocation, advisory proposals, validation, analysis and optional slot
// scheduling.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/example/weekplan/internal/advisor"
	"github.com/example/weekplan/internal/config"
	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/logging"
	"github.com/example/weekplan/internal/observability"
	"github.com/example/weekplan/internal/schedule"
	"github.com/example/weekplan/internal/storage"
	"github.com/example/weekplan/pkg/id"
)

const tracerName = "github.com/example/weekplan/internal/service"

// GenerateWeeklyPlanRequest is the request for GenerateWeeklyPlan.
type GenerateWeeklyPlanRequest struct {
	UserID string

	// WeekStartDate is an ISO-8601 calendar date. Any weekday is accepted.
	WeekStartDate string

	CapacityHours float64

	// ProjectFilter limits the run to these projects. Empty means all.
	ProjectFilter []string

	// ProjectAllocations maps project ID to a percentage in [0,100]. When
	// empty, the percentages stored on the projects are used.
	ProjectAllocations map[string]float64

	SelectedRecurringTaskIDs []string
	Preferences              map[string]any
}

// PlannerService runs weekly planning. It holds no per-run state, so one
// instance serves concurrent runs.
type PlannerService struct {
	cfg       config.PlannerConfig
	assembler *ContextAssembler
	allocator *AllocationPlanner
	gateway   advisor.Gateway
	validator *PlanValidator
	analyzer  *MetricsAnalyzer
	scheduler schedule.Allocator

	metrics *observability.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
	runID   func() string
}

// Option configures a PlannerService.
type Option func(*PlannerService)

// WithMetrics records run metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *PlannerService) { s.metrics = m }
}

// WithScheduler overrides the slot allocator used when scheduling is enabled.
func WithScheduler(a schedule.Allocator) Option {
	return func(s *PlannerService) { s.scheduler = a }
}

// WithClock sets the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PlannerService) { s.now = now }
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(gen func() string) Option {
	return func(s *PlannerService) { s.runID = gen }
}

// NewPlanner creates a PlannerService.
func NewPlanner(catalog storage.Catalog, gateway advisor.Gateway, cfg config.PlannerConfig, logger *zap.Logger, opts ...Option) *PlannerService {
	logger = logging.OrNop(logger)
	if cfg.ProposalTimeout <= 0 {
		cfg.ProposalTimeout = config.Default().Planner.ProposalTimeout
	}
	s := &PlannerService{
		cfg:       cfg,
		assembler: NewContextAssembler(catalog, logger),
		allocator: NewAllocationPlanner(cfg.BufferHours, logger),
		gateway:   gateway,
		validator: NewPlanValidator(logger),
		analyzer:  NewMetricsAnalyzer(cfg.OverloadThreshold),
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		runID:     id.NewRunID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil && cfg.Schedule.Enabled {
		s.scheduler = schedule.NewGreedyAllocator()
	}
	return s
}

// GenerateWeeklyPlan runs one planning pass for a user and week. Input
// errors wrap domain.ErrInvalidInput, advisory failures domain.ErrExternalService
// and catalog failures domain.ErrCatalog. Unknown proposed tasks and overload
// never fail a run; they are reported in the response.
func (s *PlannerService) GenerateWeeklyPlan(ctx context.Context, req *GenerateWeeklyPlanRequest) (resp *domain.WeeklyPlanResponse, err error) {
	started := time.Now()
	runID := s.runID()
	log := s.logger.With(zap.String("run_id", runID))

	ctx, span := s.tracer.Start(ctx, "weekplan.GenerateWeeklyPlan", trace.WithAttributes(
		attribute.String("weekplan.run_id", runID),
	))
	if s.metrics != nil {
		s.metrics.ActiveRuns().Inc()
	}
	defer func() {
		outcome := outcomeOf(err)
		if s.metrics != nil {
			s.metrics.ActiveRuns().Dec()
			s.metrics.Runs().WithLabels(outcome).Inc()
			s.metrics.RunDuration().Since(started)
		}
		span.SetAttributes(attribute.String("weekplan.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("weekly plan failed", zap.String("outcome", outcome), zap.Error(err))
		}
		span.End()
	}()

	weekStart, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("user_id", req.UserID), zap.String("week_start", req.WeekStartDate))
	span.SetAttributes(attribute.String("weekplan.user_id", req.UserID))

	stageCtx, done := s.stage(ctx, "assemble_context")
	pctx, err := s.assembler.Assemble(stageCtx, AssembleRequest{
		UserID:                   req.UserID,
		WeekStart:                weekStart,
		ProjectFilter:            req.ProjectFilter,
		SelectedRecurringTaskIDs: req.SelectedRecurringTaskIDs,
		CapacityHours:            req.CapacityHours,
		Preferences:              req.Preferences,
	})
	done(err)
	if err != nil {
		return nil, err
	}

	percentages := req.ProjectAllocations
	if len(percentages) == 0 {
		percentages = StoredPercentages(pctx)
	}
	_, done = s.stage(ctx, "allocate_hours")
	allocations := s.allocator.Plan(pctx, percentages)
	done(nil)

	proposal := &advisor.Proposal{Candidates: []domain.TaskPlanCandidate{}}
	if len(pctx.Tasks) > 0 {
		stageCtx, done = s.stage(ctx, "propose_plan")
		proposal, err = s.propose(stageCtx, log, advisor.BuildSummary(pctx, allocations))
		done(err)
		if err != nil {
			return nil, err
		}
	} else {
		log.Info("no active tasks, skipping advisory proposal")
	}

	_, done = s.stage(ctx, "validate_plan")
	plans, skipped := s.validator.Validate(proposal.Candidates, pctx)
	done(nil)

	_, done = s.stage(ctx, "analyze_plan")
	analysis, metrics := s.analyzer.Analyze(plans, allocations, pctx.CapacityHours)
	done(nil)

	var sched *domain.ScheduleResult
	if s.cfg.Schedule.Enabled && s.scheduler != nil && len(plans) > 0 {
		stageCtx, done = s.stage(ctx, "schedule_slots")
		sched, err = s.schedule(stageCtx, weekStart, plans)
		done(err)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			log.Warn("slot scheduling failed, returning plan without schedule", zap.Error(err))
			sched, err = nil, nil
		}
	}

	recurring := pctx.SelectedRecurringTasks()
	recurringHours := 0.0
	for _, r := range recurring {
		recurringHours += r.EstimatedHours
	}
	text := narrative{
		analysis:       analysis,
		metrics:        metrics,
		skipped:        skipped,
		bufferHours:    s.cfg.BufferHours,
		recurringHours: recurringHours,
		schedule:       sched,
		advisor:        proposal.Insights,
	}

	resp = &domain.WeeklyPlanResponse{
		RunID:                runID,
		Success:              true,
		WeekStartDate:        pctx.WeekStartDate(),
		TotalPlannedHours:    analysis.TotalTaskHours,
		TaskPlans:            plans,
		SkippedTaskIDs:       skipped,
		Allocations:          allocations,
		RecurringCommitments: recurring,
		Analysis:             analysis,
		Metrics:              metrics,
		Schedule:             sched,
		Recommendations:      text.recommendations(),
		Insights:             text.insights(),
		GeneratedAt:          s.now().UTC(),
	}

	if s.metrics != nil {
		s.metrics.SkippedCandidates().Add(int64(len(skipped)))
		if analysis.OverloadRisk {
			s.metrics.OverloadedPlans().Inc()
		}
		if sched != nil {
			s.metrics.UnplacedTasks().Add(int64(len(sched.Unplaced)))
		}
	}

	log.Info("weekly plan generated",
		zap.Int("task_plans", len(plans)),
		zap.Int("skipped", len(skipped)),
		zap.Float64("total_hours", analysis.TotalTaskHours),
		zap.Float64("utilization", analysis.CapacityUtilization),
		zap.Bool("overload_risk", analysis.OverloadRisk),
		zap.Duration("duration", time.Since(started)))
	return resp, nil
}

// propose calls the gateway with a per-attempt timeout, retrying retryable
// failures with exponential backoff.
func (s *PlannerService) propose(ctx context.Context, log *zap.Logger, summary *advisor.Summary) (*advisor.Proposal, error) {
	b := backoff.NewExponentialBackOff()
	if s.cfg.RetryInitialInterval > 0 {
		b.InitialInterval = s.cfg.RetryInitialInterval
	}
	attempt := 0

	op := func() (*advisor.Proposal, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProposalTimeout)
		defer cancel()

		start := time.Now()
		p, err := s.gateway.ProposePlan(callCtx, summary)
		err = s.classifyProposalError(ctx, callCtx, err)
		if s.metrics != nil {
			s.metrics.ProposalLatency().WithLabels(outcomeOf(err)).Since(start)
		}
		if err == nil {
			return p, nil
		}
		if !domain.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		log.Warn("advisory proposal failed", zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}

	p, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.cfg.ProposalRetries+1)),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			return nil, fmt.Errorf("advisory proposal abandoned: %w", ctx.Err())
		}
		return nil, err
	}
	if p == nil {
		p = &advisor.Proposal{}
	}
	if p.Candidates == nil {
		p.Candidates = []domain.TaskPlanCandidate{}
	}
	return p, nil
}

// classifyProposalError makes every gateway failure an ExternalServiceError.
// A per-attempt timeout is retryable; a cancelled run is not.
func (s *PlannerService) classifyProposalError(runCtx, callCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if runCtx.Err() != nil {
		return &domain.ExternalServiceError{Service: "advisor", Op: "propose_plan", Err: fmt.Errorf("%w: %w", runCtx.Err(), err)}
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return domain.NewExternalServiceError("advisor", "propose_plan",
			fmt.Errorf("timed out after %s: %w", s.cfg.ProposalTimeout, err))
	}
	if !errors.Is(err, domain.ErrExternalService) {
		return &domain.ExternalServiceError{Service: "advisor", Op: "propose_plan", Err: err}
	}
	return err
}

func (s *PlannerService) schedule(ctx context.Context, weekStart time.Time, plans []domain.TaskPlan) (*domain.ScheduleResult, error) {
	sc := s.cfg.Schedule
	items := make([]schedule.Item, 0, len(plans))
	for _, p := range plans {
		items = append(items, schedule.Item{
			TaskID:       p.TaskID,
			Hours:        p.EstimatedHours,
			Priority:     p.Priority,
			PreferredDay: p.SuggestedDay,
		})
	}
	caps := make([]float64, sc.Days)
	for i := range caps {
		caps[i] = sc.DailyCapHours
	}
	return s.scheduler.Allocate(ctx, schedule.Request{
		WeekStart:     weekStart,
		Items:         items,
		DailyCaps:     caps,
		DayStart:      time.Duration(sc.DayStartHour) * time.Hour,
		SlotDuration:  time.Duration(sc.SlotMinutes) * time.Minute,
		MaxIterations: sc.MaxIterations,
		TimeBudget:    sc.TimeBudget,
	})
}

// stage opens a span for one pipeline stage. The returned func ends it and
// records its duration.
func (s *PlannerService) stage(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "weekplan."+name)
	start := time.Now()
	return ctx, func(err error) {
		if s.metrics != nil {
			s.metrics.StageDuration().WithLabels(name).Since(start)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func validateRequest(req *GenerateWeeklyPlanRequest) (time.Time, error) {
	if req == nil {
		return time.Time{}, fmt.Errorf("%w: request is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return time.Time{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	weekStart, err := domain.ParseWeekStart(req.WeekStartDate)
	if err != nil {
		return time.Time{}, err
	}
	if req.CapacityHours < 0 || math.IsNaN(req.CapacityHours) || math.IsInf(req.CapacityHours, 0) {
		return time.Time{}, fmt.Errorf("%w: capacity_hours must be a finite value >= 0, got %v",
			domain.ErrInvalidInput, req.CapacityHours)
	}
	for projectID, pct := range req.ProjectAllocations {
		if strings.TrimSpace(projectID) == "" {
			return time.Time{}, fmt.Errorf("%w: project_allocations has an empty project id", domain.ErrInvalidInput)
		}
		if pct < 0 || pct > 100 || math.IsNaN(pct) {
			return time.Time{}, fmt.Errorf("%w: allocation for project %s must be in [0,100], got %v",
				domain.ErrInvalidInput, projectID, pct)
		}
	}
	return weekStart, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return observability.OutcomeCancelled
	case errors.Is(err, domain.ErrInvalidInput):
		return observability.OutcomeInputError
	case errors.Is(err, domain.ErrExternalService):
		return observability.OutcomeExternalError
	case errors.Is(err, domain.ErrCatalog):
		return observability.OutcomeCatalogError
	default:
		return observability.OutcomeInternalError
	}
}
