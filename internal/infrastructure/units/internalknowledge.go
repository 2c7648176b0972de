package units

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

// neutralInternalScore is reported when the archive has no record of the
// molecule: absence of in-house findings is neither good nor bad evidence.
const neutralInternalScore = 50

// InternalKnowledgeUnit reads the in-house research archive. It performs no
// network calls; all evidence comes from the knowledge store.
type InternalKnowledgeUnit struct {
	store  ports.KnowledgeStore
	logger *slog.Logger
}

var _ unit.EvidenceUnit = (*InternalKnowledgeUnit)(nil)

// NewInternalKnowledgeUnit wires the archive store.
func NewInternalKnowledgeUnit(store ports.KnowledgeStore, logger *slog.Logger) *InternalKnowledgeUnit {
	return &InternalKnowledgeUnit{store: store, logger: logger}
}

// Role identifies the unit inside the registry.
func (u *InternalKnowledgeUnit) Role() domain.UnitRole { return domain.RoleInternal }

// Evaluate looks the molecule up in the archive and scores prior in-house
// experience with it.
func (u *InternalKnowledgeUnit) Evaluate(ctx context.Context, req unit.Request) (domain.UnitResult, error) {
	if u.store == nil {
		return domain.UnitResult{}, fmt.Errorf("internal knowledge unit requires a knowledge store")
	}

	rec, found, err := u.store.Lookup(ctx, req.MoleculeID)
	if err != nil {
		return domain.UnitResult{}, fmt.Errorf("knowledge lookup: %w", err)
	}

	if req.Question != "" {
		return u.answer(req, rec, found)
	}

	if !found {
		return domain.UnitResult{
			Role:   u.Role(),
			Status: domain.StatusOK,
			Score:  domain.ScoreOf(neutralInternalScore),
			Findings: []domain.Finding{
				{Field: "prior_studies", Value: "0"},
				{Field: "internal_score", Value: strconv.Itoa(neutralInternalScore)},
			},
			Summary: fmt.Sprintf("No prior in-house work on %s.", req.MoleculeID),
		}, nil
	}

	if u.logger != nil {
		u.logger.Debug("knowledge record found", "molecule", req.MoleculeID, "studies", rec.PriorStudies)
	}

	return domain.UnitResult{
		Role:   u.Role(),
		Status: domain.StatusOK,
		Score:  domain.ScoreOf(clampScore(rec.Score)),
		Findings: []domain.Finding{
			{Field: "prior_studies", Value: strconv.Itoa(rec.PriorStudies)},
			{Field: "internal_score", Value: strconv.FormatFloat(rec.Score, 'f', 0, 64)},
			{Field: "last_reviewed", Value: rec.ReviewedAt.Format("2006-01-02")},
		},
		Summary: fmt.Sprintf("%d prior in-house studies on %s; last reviewed %s.",
			rec.PriorStudies, req.MoleculeID, rec.ReviewedAt.Format("2006-01-02")),
	}, nil
}

func (u *InternalKnowledgeUnit) answer(req unit.Request, rec ports.KnowledgeRecord, found bool) (domain.UnitResult, error) {
	answer := fmt.Sprintf("The archive holds no record of %s.", req.MoleculeID)
	if found {
		answer = fmt.Sprintf("Archive record for %s: %d prior studies, internal score %.0f, last reviewed %s.",
			req.MoleculeID, rec.PriorStudies, rec.Score, rec.ReviewedAt.Format("2006-01-02"))
		if rec.Notes != "" {
			answer += " Notes: " + rec.Notes
		}
	}
	return domain.UnitResult{Role: u.Role(), Status: domain.StatusOK, Summary: answer}, nil
}
