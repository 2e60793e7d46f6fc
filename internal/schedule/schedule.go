// Package schedule packs per-task hour totals into non-overlapping slots
// across the days of a week.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/weekplan/internal/domain"
)

// ErrInvalidRequest is returned for requests the allocator cannot interpret.
var ErrInvalidRequest = errors.New("invalid schedule request")

const epsilon = 1e-9

// Item is one task's hours to place.
type Item struct {
	TaskID string
	Hours  float64

	// Priority is a rank where 1 is most important; 0 means unranked.
	Priority int

	// PreferredDay is a weekday name such as "monday". Empty means no preference.
	PreferredDay string
}

// Request describes one allocation problem.
type Request struct {
	WeekStart time.Time
	Items     []Item

	// DailyCaps holds the hour cap of each day, starting at WeekStart.
	DailyCaps []float64

	// DayStart is the offset from midnight at which each day's first slot opens.
	DayStart time.Duration

	SlotDuration time.Duration

	// MaxIterations and TimeBudget bound the search. Zero disables a bound.
	MaxIterations int
	TimeBudget    time.Duration
}

// Allocator places task hours into day slots. A result with Complete set to
// false is infeasible; its Unplaced list holds the hours that did not fit.
type Allocator interface {
	Allocate(ctx context.Context, req Request) (*domain.ScheduleResult, error)
}

// GreedyAllocator fills days front to back. Each day keeps a single cursor, so
// assignments on a day never overlap.
type GreedyAllocator struct {
	// Now is the clock used for the time budget. Defaults to time.Now.
	Now func() time.Time
}

// NewGreedyAllocator creates a GreedyAllocator using the wall clock.
func NewGreedyAllocator() *GreedyAllocator {
	return &GreedyAllocator{Now: time.Now}
}

type day struct {
	name   string
	cursor time.Time
	free   int // slots left
}

// Allocate implements Allocator.
func (a *GreedyAllocator) Allocate(ctx context.Context, req Request) (*domain.ScheduleResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}
	started := now()

	slotHours := req.SlotDuration.Hours()
	days := make([]*day, len(req.DailyCaps))
	for i, capHours := range req.DailyCaps {
		date := req.WeekStart.AddDate(0, 0, i)
		days[i] = &day{
			name:   strings.ToLower(date.Weekday().String()),
			cursor: date.Add(req.DayStart),
			free:   int(math.Floor(capHours/slotHours + epsilon)),
		}
	}

	items := orderItems(req.Items)
	result := &domain.ScheduleResult{Assignments: []domain.SlotAssignment{}}
	iterations := 0

	for idx, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remaining := it.Hours
		for _, d := range visitOrder(days, it.PreferredDay) {
			if remaining <= epsilon {
				break
			}
			iterations++
			if a.exhausted(req, iterations, started, now) {
				result.BudgetExhausted = true
				break
			}
			if d.free == 0 {
				continue
			}

			need := int(math.Ceil(remaining/slotHours - epsilon))
			take := min(need, d.free)
			hours := math.Min(remaining, float64(take)*slotHours)

			result.Assignments = append(result.Assignments, domain.SlotAssignment{
				TaskID: it.TaskID,
				Day:    d.name,
				Start:  d.cursor,
				End:    d.cursor.Add(time.Duration(hours * float64(time.Hour))),
				Hours:  hours,
			})
			d.cursor = d.cursor.Add(time.Duration(take) * req.SlotDuration)
			d.free -= take
			remaining -= hours
		}

		if remaining > epsilon {
			result.Unplaced = append(result.Unplaced, domain.UnplacedTask{TaskID: it.TaskID, Hours: remaining})
		}
		if result.BudgetExhausted {
			for _, rest := range items[idx+1:] {
				if rest.Hours > epsilon {
					result.Unplaced = append(result.Unplaced, domain.UnplacedTask{TaskID: rest.TaskID, Hours: rest.Hours})
				}
			}
			break
		}
	}

	result.Complete = len(result.Unplaced) == 0
	return result, nil
}

func (a *GreedyAllocator) exhausted(req Request, iterations int, started time.Time, now func() time.Time) bool {
	if req.MaxIterations > 0 && iterations > req.MaxIterations {
		return true
	}
	return req.TimeBudget > 0 && now().Sub(started) > req.TimeBudget
}

func validate(req Request) error {
	if req.SlotDuration <= 0 {
		return fmt.Errorf("%w: slot duration must be positive", ErrInvalidRequest)
	}
	if len(req.DailyCaps) == 0 || len(req.DailyCaps) > 7 {
		return fmt.Errorf("%w: need between 1 and 7 daily caps, got %d", ErrInvalidRequest, len(req.DailyCaps))
	}
	for i, c := range req.DailyCaps {
		if c < 0 || math.IsNaN(c) || req.DayStart+time.Duration(c*float64(time.Hour)) > 24*time.Hour {
			return fmt.Errorf("%w: daily cap %d (%v hours) does not fit in a day", ErrInvalidRequest, i, c)
		}
	}
	for _, it := range req.Items {
		if it.Hours < 0 || math.IsNaN(it.Hours) || math.IsInf(it.Hours, 0) {
			return fmt.Errorf("%w: task %s has invalid hours %v", ErrInvalidRequest, it.TaskID, it.Hours)
		}
	}
	return nil
}

// orderItems ranks items by priority (unranked last), then larger tasks first,
// then task ID.
func orderItems(items []Item) []Item {
	out := append([]Item(nil), items...)
	rank := func(p int) int {
		if p <= 0 {
			return math.MaxInt
		}
		return p
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i].Priority), rank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

// visitOrder puts the preferred day first, then the rest in calendar order.
func visitOrder(days []*day, preferred string) []*day {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred == "" {
		return days
	}
	out := make([]*day, 0, len(days))
	for _, d := range days {
		if d.name == preferred {
			out = append(out, d)
		}
	}
	for _, d := range days {
		if d.name != preferred {
			out = append(out, d)
		}
	}
	return out
}
