package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"MoleculeRadar/internal/config"
	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/unit"
)

// Orchestrator fans an analysis request out to every registered evidence unit
// and collects whatever settles before the global deadline. Partial success is
// a normal outcome: every dispatched role comes back with exactly one result,
// synthetic timeout/failed ones included.
type Orchestrator struct {
	registry  *unit.Registry
	validator *Validator
	cfg       config.OrchestratorConfig
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

// NewOrchestrator wires the registry, validator, and deadline configuration.
func NewOrchestrator(reg *unit.Registry, validator *Validator, cfg config.OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	var sem *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return &Orchestrator{
		registry:  reg,
		validator: validator,
		cfg:       cfg,
		sem:       sem,
		logger:    logger,
	}
}

// Run dispatches all registered units concurrently and returns one validated
// result per role, in fixed role order. It never blocks past the request's
// global deadline; units still outstanding at that point are recorded as
// timeouts and their late output is discarded.
func (o *Orchestrator) Run(ctx context.Context, req domain.AnalysisRequest) []domain.UnitResult {
	roles := o.registry.Roles()
	if len(roles) == 0 {
		return nil
	}

	global := req.GlobalDeadline
	if global <= 0 {
		global = o.cfg.GlobalDeadline
	}

	runCtx, cancel := context.WithTimeout(ctx, global)
	defer cancel()

	// Buffered so late finishers never block; their results simply go unread.
	out := make(chan domain.UnitResult, len(roles))
	started := time.Now()

	for _, role := range roles {
		go o.dispatch(runCtx, role, req, out)
	}

	collected := make(map[domain.UnitRole]domain.UnitResult, len(roles))

collect:
	for len(collected) < len(roles) {
		select {
		case res := <-out:
			collected[res.Role] = res
		case <-runCtx.Done():
			break collect
		}
	}

	results := make([]domain.UnitResult, 0, len(roles))
	for _, role := range roles {
		res, ok := collected[role]
		if !ok {
			res = syntheticResult(role, domain.StatusTimeout, "unit did not report before the global deadline", started)
		}
		results = append(results, res)
	}

	o.debug("fan-out settled",
		"request", req.ID,
		"molecule", req.MoleculeID,
		"elapsed", time.Since(started),
		"reported", len(collected),
		"dispatched", len(roles))

	return results
}

// dispatch evaluates a single unit under its own deadline and pushes exactly
// one result, converting every kind of fault into a status.
func (o *Orchestrator) dispatch(ctx context.Context, role domain.UnitRole, req domain.AnalysisRequest, out chan<- domain.UnitResult) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.warn("unit panicked", "role", role, "panic", fmt.Sprint(r))
			out <- syntheticResult(role, domain.StatusFailed, fmt.Sprintf("unit panic: %v", r), started)
		}
	}()

	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			out <- syntheticResult(role, domain.StatusTimeout, "deadline elapsed while waiting for a worker slot", started)
			return
		}
		defer o.sem.Release(1)
	}

	deadline := o.cfg.DeadlineFor(role)
	options := map[string]string{}
	if ov, ok := req.Overrides[role]; ok {
		if ov.Deadline > 0 {
			deadline = ov.Deadline
		}
		for k, v := range ov.Options {
			options[k] = v
		}
	}

	// The parent ctx already carries the global deadline, so the smaller of
	// the two always wins here.
	unitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	res, err := func() (domain.UnitResult, error) {
		u, rErr := o.registry.Resolve(role)
		if rErr != nil {
			return domain.UnitResult{}, rErr
		}
		return u.Evaluate(unitCtx, unit.Request{
			MoleculeID: req.MoleculeID,
			Indication: req.Indication,
			Options:    options,
		})
	}()

	switch {
	case err == nil:
		res.Role = role
		res.StartedAt = started
		res.FinishedAt = time.Now()
		if res.Status == "" {
			res.Status = domain.StatusOK
		}
		out <- o.validator.Validate(res)
	case errors.Is(err, context.DeadlineExceeded):
		out <- syntheticResult(role, domain.StatusTimeout, "unit exceeded its deadline", started)
	default:
		o.warn("unit failed", "role", role, "error", err)
		out <- syntheticResult(role, domain.StatusFailed, err.Error(), started)
	}
}

func syntheticResult(role domain.UnitRole, status domain.UnitStatus, reason string, started time.Time) domain.UnitResult {
	return domain.UnitResult{
		Role:       role,
		Status:     status,
		Err:        reason,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
}

func (o *Orchestrator) debug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
