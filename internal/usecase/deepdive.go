package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/unit"
)

// DeepDive routes a follow-up question to the single most relevant evidence
// unit of a prior report. It never re-runs the other units or recomputes the
// report.
type DeepDive struct {
	registry *unit.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDeepDive wires the unit registry with a fresh per-question deadline.
func NewDeepDive(reg *unit.Registry, timeout time.Duration, logger *slog.Logger) *DeepDive {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DeepDive{registry: reg, timeout: timeout, logger: logger}
}

// Ask re-invokes the targeted unit with the question attached. The role must
// have been dispatched in the prior report, in any status; an unknown or
// absent role is a routing error, never a silent substitution.
func (d *DeepDive) Ask(ctx context.Context, prior domain.SynthesisReport, role domain.UnitRole, question string) (string, error) {
	if question == "" {
		return "", &domain.ConfigurationError{Reason: "deep-dive question must not be empty"}
	}
	if !domain.KnownRole(role) {
		return "", &domain.RoutingError{Role: role, Reason: "unknown unit role"}
	}

	priorResult, ran := prior.UnitByRole(role)
	if !ran {
		return "", &domain.RoutingError{Role: role, Reason: "role was not dispatched in the prior report"}
	}

	u, err := d.registry.Resolve(role)
	if err != nil {
		return "", &domain.RoutingError{Role: role, Reason: err.Error()}
	}

	askCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := unit.Request{
		MoleculeID: prior.MoleculeID,
		Indication: prior.Indication,
		Question:   question,
		Options:    contextOptions(priorResult),
	}

	res, err := u.Evaluate(askCtx, req)
	if err != nil {
		return "", fmt.Errorf("deep-dive into %s: %w", role, err)
	}

	if d.logger != nil {
		d.logger.Debug("deep-dive answered", "role", role, "molecule", prior.MoleculeID)
	}
	return res.Summary, nil
}

// contextOptions hands the unit its own prior evidence so it can answer
// without rebuilding it from scratch.
func contextOptions(prior domain.UnitResult) map[string]string {
	options := map[string]string{
		"prior_status": string(prior.Status),
	}
	if prior.Summary != "" {
		options["prior_summary"] = prior.Summary
	}
	for _, f := range prior.Findings {
		options["prior_"+f.Field] = f.Value
	}
	return options
}
