package schedule

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/weekplan/internal/domain"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(dayOffset, hour, minute int) time.Time {
	return monday.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func baseRequest(caps []float64, items ...Item) Request {
	return Request{
		WeekStart:    monday,
		Items:        items,
		DailyCaps:    caps,
		DayStart:     9 * time.Hour,
		SlotDuration: 30 * time.Minute,
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		want     []domain.SlotAssignment
		unplaced []domain.UnplacedTask
	}{
		{
			name: "sequential on one day",
			req:  baseRequest([]float64{8, 8}, Item{TaskID: "b", Hours: 2, Priority: 2}, Item{TaskID: "a", Hours: 3, Priority: 1}),
			want: []domain.SlotAssignment{
				{TaskID: "a", Day: "monday", Start: at(0, 9, 0), End: at(0, 12, 0), Hours: 3},
				{TaskID: "b", Day: "monday", Start: at(0, 12, 0), End: at(0, 14, 0), Hours: 2},
			},
		},
		{
			name: "split across days",
			req:  baseRequest([]float64{4, 4}, Item{TaskID: "a", Hours: 6}),
			want: []domain.SlotAssignment{
				{TaskID: "a", Day: "monday", Start: at(0, 9, 0), End: at(0, 13, 0), Hours: 4},
				{TaskID: "a", Day: "tuesday", Start: at(1, 9, 0), End: at(1, 11, 0), Hours: 2},
			},
		},
		{
			name: "preferred day first",
			req:  baseRequest([]float64{8, 8}, Item{TaskID: "a", Hours: 1, PreferredDay: "Tuesday"}),
			want: []domain.SlotAssignment{
				{TaskID: "a", Day: "tuesday", Start: at(1, 9, 0), End: at(1, 10, 0), Hours: 1},
			},
		},
		{
			name: "partial slot rounds the cursor up",
			req:  baseRequest([]float64{8}, Item{TaskID: "a", Hours: 1.25, Priority: 1}, Item{TaskID: "b", Hours: 0.5, Priority: 2}),
			want: []domain.SlotAssignment{
				{TaskID: "a", Day: "monday", Start: at(0, 9, 0), End: at(0, 10, 15), Hours: 1.25},
				{TaskID: "b", Day: "monday", Start: at(0, 10, 30), End: at(0, 11, 0), Hours: 0.5},
			},
		},
		{
			name: "unranked tasks go last",
			req: baseRequest([]float64{8},
				Item{TaskID: "x", Hours: 5},
				Item{TaskID: "y", Hours: 1, Priority: 2},
				Item{TaskID: "z", Hours: 1, Priority: 1}),
			want: []domain.SlotAssignment{
				{TaskID: "z", Day: "monday", Start: at(0, 9, 0), End: at(0, 10, 0), Hours: 1},
				{TaskID: "y", Day: "monday", Start: at(0, 10, 0), End: at(0, 11, 0), Hours: 1},
				{TaskID: "x", Day: "monday", Start: at(0, 11, 0), End: at(0, 16, 0), Hours: 5},
			},
		},
		{
			name: "infeasible leaves a remainder",
			req:  baseRequest([]float64{2}, Item{TaskID: "a", Hours: 3}),
			want: []domain.SlotAssignment{
				{TaskID: "a", Day: "monday", Start: at(0, 9, 0), End: at(0, 11, 0), Hours: 2},
			},
			unplaced: []domain.UnplacedTask{{TaskID: "a", Hours: 1}},
		},
		{
			name: "zero hour items are ignored",
			req:  baseRequest([]float64{1}, Item{TaskID: "a", Hours: 0}),
			want: []domain.SlotAssignment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewGreedyAllocator().Allocate(context.Background(), tt.req)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, res.Assignments, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("assignments mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.unplaced, res.Unplaced)
			assert.Equal(t, len(tt.unplaced) == 0, res.Complete)
			assert.False(t, res.BudgetExhausted)
		})
	}
}

func TestAllocateRespectsCapsWithoutOverlap(t *testing.T) {
	caps := []float64{6, 6, 6, 6, 6}
	var items []Item
	for i := 0; i < 12; i++ {
		items = append(items, Item{TaskID: fmt.Sprintf("t%02d", i), Hours: float64(i%4) + 0.75, Priority: i % 3})
	}

	res, err := NewGreedyAllocator().Allocate(context.Background(), baseRequest(caps, items...))
	require.NoError(t, err)

	perDay := map[string][]domain.SlotAssignment{}
	for _, a := range res.Assignments {
		perDay[a.Day] = append(perDay[a.Day], a)
	}
	for name, list := range perDay {
		total := 0.0
		for i, a := range list {
			total += a.Hours
			assert.True(t, a.End.After(a.Start), "%s: empty interval", name)
			if i > 0 {
				assert.False(t, a.Start.Before(list[i-1].End), "%s: %s overlaps %s", name, a.TaskID, list[i-1].TaskID)
			}
		}
		assert.LessOrEqual(t, total, 6.0+1e-9, name)
	}

	placed := 0.0
	for _, a := range res.Assignments {
		placed += a.Hours
	}
	unplaced := 0.0
	for _, u := range res.Unplaced {
		unplaced += u.Hours
	}
	want := 0.0
	for _, it := range items {
		want += it.Hours
	}
	assert.InDelta(t, want, placed+unplaced, 1e-9)
}

func TestAllocateIterationBudget(t *testing.T) {
	req := baseRequest([]float64{8}, Item{TaskID: "a", Hours: 1, Priority: 1}, Item{TaskID: "b", Hours: 2, Priority: 2})
	req.MaxIterations = 1

	res, err := NewGreedyAllocator().Allocate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.BudgetExhausted)
	assert.False(t, res.Complete)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "a", res.Assignments[0].TaskID)
	assert.Equal(t, []domain.UnplacedTask{{TaskID: "b", Hours: 2}}, res.Unplaced)
}

func TestAllocateTimeBudget(t *testing.T) {
	clock := monday
	alloc := &GreedyAllocator{Now: func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}}
	req := baseRequest([]float64{8}, Item{TaskID: "a", Hours: 1, Priority: 1}, Item{TaskID: "b", Hours: 1, Priority: 2}, Item{TaskID: "c", Hours: 1, Priority: 3})
	req.TimeBudget = 1500 * time.Millisecond

	res, err := alloc.Allocate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.BudgetExhausted)
	assert.Len(t, res.Assignments, 1)
	assert.Equal(t, []domain.UnplacedTask{{TaskID: "b", Hours: 1}, {TaskID: "c", Hours: 1}}, res.Unplaced)
}

func TestAllocateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "no slot duration", req: Request{DailyCaps: []float64{8}}},
		{name: "no days", req: Request{SlotDuration: time.Hour}},
		{name: "cap past midnight", req: Request{SlotDuration: time.Hour, DayStart: 20 * time.Hour, DailyCaps: []float64{8}}},
		{name: "negative hours", req: Request{SlotDuration: time.Hour, DailyCaps: []float64{8}, Items: []Item{{TaskID: "a", Hours: -1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGreedyAllocator().Allocate(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestAllocateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGreedyAllocator().Allocate(ctx, baseRequest([]float64{8}, Item{TaskID: "a", Hours: 1}))
	assert.ErrorIs(t, err, context.Canceled)
}
