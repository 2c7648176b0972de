package unit

import (
	"context"
	"time"

	"MoleculeRadar/internal/domain"
)

// Canned is an EvidenceUnit that returns a fixed result. It backs the
// deterministic substitution mode: the orchestration code path is identical
// whether a role is served by a live unit or a canned one.
type Canned struct {
	role   domain.UnitRole
	result domain.UnitResult
	err    error
	delay  time.Duration
	answer string
}

// NewCanned builds a unit that always returns the given result.
func NewCanned(role domain.UnitRole, result domain.UnitResult) *Canned {
	result.Role = role
	return &Canned{role: role, result: result}
}

// NewCannedError builds a unit that always fails with err.
func NewCannedError(role domain.UnitRole, err error) *Canned {
	return &Canned{role: role, err: err}
}

// WithDelay makes the unit sleep before responding, for deadline tests.
func (c *Canned) WithDelay(d time.Duration) *Canned {
	c.delay = d
	return c
}

// WithAnswer sets the summary returned for deep-dive questions.
func (c *Canned) WithAnswer(answer string) *Canned {
	c.answer = answer
	return c
}

// Role identifies the canned unit inside the registry.
func (c *Canned) Role() domain.UnitRole { return c.role }

// Evaluate returns the fixed result, honoring ctx during any configured delay.
func (c *Canned) Evaluate(ctx context.Context, req Request) (domain.UnitResult, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return domain.UnitResult{}, ctx.Err()
		}
	}
	if c.err != nil {
		return domain.UnitResult{}, c.err
	}
	res := c.result
	if req.Question != "" && c.answer != "" {
		res.Summary = c.answer
	}
	return res, nil
}
