package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/weekplan/cmd/weekplan/internal/ui"
	"github.com/example/weekplan/internal/app"
	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/fixture"
	"github.com/example/weekplan/internal/service"
	grpcTransport "github.com/example/weekplan/internal/transport/grpc"
)

type planOptions struct {
	user      string
	week      string
	capacity  float64
	projects  []string
	allocs    []string
	recurring []string
	remote    string
	fixture   string
	schedule  bool
	json      bool
}

var planOpts = planOptions{capacity: 40}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a weekly plan",
	Long: `Generate a plan for one user and week.

Capacity is split across projects by allocation percentage after a meeting
buffer is reserved. Percentages passed with --alloc replace the stored ones;
without --alloc the stored percentages are used. The advisory model proposes
tasks and every proposal is checked against the user's active tasks.

The week defaults to the coming Monday.

EXAMPLES:
  # Plan locally using the configured advisory provider
  weekplan plan --user u1 --week 2024-01-01 --capacity 35

  # Restrict to two projects and print JSON
  weekplan plan --user u1 --project p1 --project p2 --json

  # Offline plan with slot scheduling
  weekplan plan --user u1 --fixture fixture.yaml --schedule`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planOpts.user, "user", "", "user to plan for (required)")
	f.StringVar(&planOpts.week, "week", "", "week start date, YYYY-MM-DD (default: next Monday)")
	f.Float64Var(&planOpts.capacity, "capacity", 40, "available hours this week")
	f.StringSliceVar(&planOpts.projects, "project", nil, "restrict to these project IDs")
	f.StringSliceVar(&planOpts.allocs, "alloc", nil, "allocation override as project=percentage")
	f.StringSliceVar(&planOpts.recurring, "recurring", nil, "recurring task IDs to include")
	f.StringVar(&planOpts.remote, "remote", "", "plan on a running server at host:port")
	f.StringVar(&planOpts.fixture, "fixture", "", "use the proposal in this fixture instead of the advisory provider")
	f.BoolVar(&planOpts.schedule, "schedule", false, "place task hours into day slots")
	f.BoolVar(&planOpts.json, "json", false, "print the plan as JSON")
	_ = planCmd.MarkFlagRequired("user")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	allocations, err := parseAllocations(planOpts.allocs)
	if err != nil {
		return err
	}
	week := planOpts.week
	if week == "" {
		week = nextMonday(time.Now()).Format(domain.WeekStartLayout)
	}
	req := &service.GenerateWeeklyPlanRequest{
		UserID:                   planOpts.user,
		WeekStartDate:            week,
		CapacityHours:            planOpts.capacity,
		ProjectFilter:            planOpts.projects,
		ProjectAllocations:       allocations,
		SelectedRecurringTaskIDs: planOpts.recurring,
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var resp *domain.WeeklyPlanResponse
	if planOpts.remote != "" {
		resp, err = planRemote(ctx, planOpts.remote, req)
	} else {
		if planOpts.schedule {
			cfg.Planner.Schedule.Enabled = true
		}
		var opts []app.Option
		if planOpts.fixture != "" {
			f, err := fixture.Load(planOpts.fixture)
			if err != nil {
				return err
			}
			gw, err := f.Gateway()
			if err != nil {
				return err
			}
			opts = append(opts, app.WithGateway(gw))
		}

		var a *app.App
		a, err = app.New(ctx, cfg, logger, opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err = a.Planner.GenerateWeeklyPlan(ctx, req)
	}
	if err != nil {
		return err
	}
	logger.Debug("plan generated", zap.String("run_id", resp.RunID))

	if planOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	ui.PrintPlan(out, resp)
	return nil
}

func planRemote(ctx context.Context, addr string, req *service.GenerateWeeklyPlanRequest) (*domain.WeeklyPlanResponse, error) {
	client, conn, err := grpcTransport.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return client.GenerateWeeklyPlan(ctx, req)
}

// parseAllocations reads project=percentage pairs. Range checks are left to
// the planner.
func parseAllocations(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		project, pct, ok := strings.Cut(pair, "=")
		project = strings.TrimSpace(project)
		if !ok || project == "" {
			return nil, fmt.Errorf("invalid --alloc %q: want project=percentage", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(pct), "%")), 64)
		if err != nil || math.IsNaN(v) {
			return nil, fmt.Errorf("invalid --alloc %q: percentage is not a number", pair)
		}
		out[project] = v
	}
	return out, nil
}

// nextMonday returns the first Monday strictly after t, at midnight UTC.
func nextMonday(t time.Time) time.Time {
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := t.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
