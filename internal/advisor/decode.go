package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/example/weekplan/internal/domain"
)

// DecodeProposal parses a JSON proposal, tolerating a surrounding markdown
// code fence. It checks shape only; task ids are validated by the planner.
func DecodeProposal(raw string) (*Proposal, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", domain.ErrMalformedResponse)
	}

	var p Proposal
	if strings.HasPrefix(body, "[") {
		// Some models answer with the bare candidate array.
		if err := json.Unmarshal([]byte(body), &p.Candidates); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
	} else if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	for i, c := range p.Candidates {
		if strings.TrimSpace(c.TaskID) == "" {
			return nil, fmt.Errorf("%w: candidate %d has no task_id", domain.ErrMalformedResponse, i)
		}
		if c.EstimatedHours < 0 || math.IsNaN(c.EstimatedHours) || math.IsInf(c.EstimatedHours, 0) {
			return nil, fmt.Errorf("%w: candidate %d (%s) has invalid estimated_hours %v",
				domain.ErrMalformedResponse, i, c.TaskID, c.EstimatedHours)
		}
	}
	if p.Candidates == nil {
		p.Candidates = []domain.TaskPlanCandidate{}
	}
	return &p, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
