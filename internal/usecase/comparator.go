package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"MoleculeRadar/internal/domain"
)

const (
	compareMin = 2
	compareMax = 3
)

// Comparator runs the orchestration pipeline independently per molecule and
// ranks the resulting reports. Runs share nothing beyond read-only config.
type Comparator struct {
	orchestrator *Orchestrator
	synthesizer  *Synthesizer
	logger       *slog.Logger
	now          func() time.Time
}

// NewComparator wires the single-molecule pipeline into comparison mode.
func NewComparator(orch *Orchestrator, synth *Synthesizer, logger *slog.Logger) *Comparator {
	return &Comparator{orchestrator: orch, synthesizer: synth, logger: logger, now: time.Now}
}

// Compare analyzes 2-3 molecules concurrently and ranks them by overall
// score, then confidence, then molecule identifier. Requests outside the
// molecule bound are rejected before any work is dispatched.
func (c *Comparator) Compare(ctx context.Context, moleculeIDs []string, indication string) (domain.ComparisonReport, error) {
	if len(moleculeIDs) < compareMin || len(moleculeIDs) > compareMax {
		return domain.ComparisonReport{}, &domain.ConfigurationError{
			Reason: fmt.Sprintf("comparison requires between %d and %d molecules, got %d", compareMin, compareMax, len(moleculeIDs)),
		}
	}
	for _, id := range moleculeIDs {
		if id == "" {
			return domain.ComparisonReport{}, &domain.ConfigurationError{Reason: "molecule identifier must not be empty"}
		}
	}

	reports := make([]domain.SynthesisReport, len(moleculeIDs))
	var wg sync.WaitGroup
	for i, moleculeID := range moleculeIDs {
		wg.Add(1)
		go func(i int, moleculeID string) {
			defer wg.Done()
			req := domain.AnalysisRequest{
				ID:          uuid.New().String(),
				MoleculeID:  moleculeID,
				Indication:  indication,
				Mode:        domain.ModeCompare,
				SubmittedAt: c.now(),
			}
			results := c.orchestrator.Run(ctx, req)
			reports[i] = c.synthesizer.Synthesize(moleculeID, indication, results)
		}(i, moleculeID)
	}
	wg.Wait()

	ranked := rankReports(reports)

	report := domain.ComparisonReport{
		ID:            uuid.New().String(),
		Indication:    indication,
		Ranked:        ranked,
		BestCandidate: ranked[0].MoleculeID,
		Summary:       comparisonSummary(ranked),
		GeneratedAt:   c.now(),
	}

	if c.logger != nil {
		c.logger.Debug("comparison complete", "molecules", len(moleculeIDs), "best", report.BestCandidate)
	}
	return report, nil
}

// rankReports orders by score desc, confidence desc, then molecule ID asc so
// the result is fully deterministic.
func rankReports(reports []domain.SynthesisReport) []domain.RankedCandidate {
	sorted := make([]domain.SynthesisReport, len(reports))
	copy(sorted, reports)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OverallScore != sorted[j].OverallScore {
			return sorted[i].OverallScore > sorted[j].OverallScore
		}
		if sorted[i].Confidence.Rank() != sorted[j].Confidence.Rank() {
			return sorted[i].Confidence.Rank() > sorted[j].Confidence.Rank()
		}
		return sorted[i].MoleculeID < sorted[j].MoleculeID
	})

	ranked := make([]domain.RankedCandidate, len(sorted))
	for i, rep := range sorted {
		ranked[i] = domain.RankedCandidate{MoleculeID: rep.MoleculeID, Report: rep, Rank: i + 1}
	}
	return ranked
}

func comparisonSummary(ranked []domain.RankedCandidate) string {
	best := ranked[0]
	return fmt.Sprintf("%s is the top candidate with a score of %.1f/100 (%s, %s confidence) out of %d molecules compared.",
		best.MoleculeID,
		best.Report.OverallScore,
		best.Report.Recommendation,
		best.Report.Confidence,
		len(ranked))
}
