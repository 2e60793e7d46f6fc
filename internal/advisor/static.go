package advisor

import (
	"context"
	"sync"

	"github.com/example/weekplan/internal/domain"
)

// StaticGateway returns a fixed proposal. It backs offline runs and tests.
type StaticGateway struct {
	mu       sync.Mutex
	proposal Proposal

	// Errs are returned, in order, by the first len(Errs) calls.
	Errs []error

	// Summaries records every summary received.
	Summaries []*Summary
}

// NewStaticGateway creates a gateway that always proposes p.
func NewStaticGateway(p Proposal) *StaticGateway {
	return &StaticGateway{proposal: p}
}

// ProposePlan implements Gateway.
func (g *StaticGateway) ProposePlan(ctx context.Context, summary *Summary) (*Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Summaries = append(g.Summaries, summary)
	if err := ctx.Err(); err != nil {
		return nil, &domain.ExternalServiceError{Service: "static", Op: "propose", Err: err}
	}
	if len(g.Errs) > 0 {
		err := g.Errs[0]
		g.Errs = g.Errs[1:]
		if err != nil {
			return nil, err
		}
	}

	out := Proposal{
		Candidates: append([]domain.TaskPlanCandidate(nil), g.proposal.Candidates...),
		Insights:   append([]string(nil), g.proposal.Insights...),
	}
	return &out, nil
}

// Calls returns how many proposals were requested.
func (g *StaticGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Summaries)
}
