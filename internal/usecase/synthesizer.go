package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"MoleculeRadar/internal/config"
	"MoleculeRadar/internal/domain"
)

// Synthesizer combines validated unit results into a single report. The
// overall score is a deterministic function of the ok results alone; failed
// units only affect confidence and the risk list.
type Synthesizer struct {
	cfg config.SynthesisConfig
	now func() time.Time
}

// NewSynthesizer builds a synthesizer around the configured weight table and
// thresholds.
func NewSynthesizer(cfg config.SynthesisConfig) *Synthesizer {
	return &Synthesizer{cfg: cfg, now: time.Now}
}

// Synthesize always returns a report, degraded if necessary; it never fails.
func (s *Synthesizer) Synthesize(moleculeID, indication string, results []domain.UnitResult) domain.SynthesisReport {
	report := domain.SynthesisReport{
		ID:          uuid.New().String(),
		MoleculeID:  moleculeID,
		Indication:  indication,
		Units:       orderedByRole(results),
		GeneratedAt: s.now(),
	}

	okResults := make([]domain.UnitResult, 0, len(results))
	for _, res := range report.Units {
		if res.Status == domain.StatusOK && res.Score != nil {
			okResults = append(okResults, res)
		}
	}

	report.OverallScore = s.weightedScore(okResults)
	report.Confidence = confidenceOf(len(okResults), len(report.Units))
	report.Recommendation = s.recommend(report.OverallScore, report.Confidence, len(okResults))
	report.Risks = s.collectRisks(report.Units, len(okResults))
	report.Strengths, report.Weaknesses, report.KeyFactors = s.classifyEvidence(okResults)
	report.Summary = s.summarize(report)

	return report
}

// weightedScore combines ok scores with the fixed per-role weight table.
// Weights of missing roles are redistributed proportionally: dividing by the
// sum of the present weights keeps the result on the same 0-100 scale no
// matter how many units succeeded.
func (s *Synthesizer) weightedScore(okResults []domain.UnitResult) float64 {
	var weighted, total float64
	for _, res := range okResults {
		w := s.cfg.WeightFor(res.Role)
		weighted += *res.Score * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

func confidenceOf(okCount, dispatched int) domain.Confidence {
	switch {
	case dispatched == 0 || okCount == 0:
		return domain.ConfidenceNone
	case okCount == dispatched:
		return domain.ConfidenceHigh
	case okCount*2 > dispatched:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// recommend maps (score, confidence) to a verdict. Confidence only ever
// downgrades: anything below high confidence is capped at CAUTION, and zero
// usable evidence forces REJECT.
func (s *Synthesizer) recommend(score float64, confidence domain.Confidence, okCount int) domain.Recommendation {
	if okCount == 0 {
		return domain.RecommendReject
	}

	rec := domain.RecommendReject
	switch {
	case score >= s.cfg.ProceedThreshold:
		rec = domain.RecommendProceed
	case score >= s.cfg.CautionThreshold:
		rec = domain.RecommendCaution
	}

	if rec == domain.RecommendProceed && confidence != domain.ConfidenceHigh {
		rec = domain.RecommendCaution
	}
	return rec
}

func (s *Synthesizer) collectRisks(units []domain.UnitResult, okCount int) []domain.RiskItem {
	risks := make([]domain.RiskItem, 0, len(units))

	for _, res := range units {
		switch res.Status {
		case domain.StatusOK:
			if res.Score != nil && *res.Score < s.cfg.RiskFloorFor(res.Role) {
				risks = append(risks, domain.RiskItem{
					Role:   res.Role,
					Reason: fmt.Sprintf("%s score %.0f is below the risk threshold %.0f", res.Role, *res.Score, s.cfg.RiskFloorFor(res.Role)),
				})
			}
		default:
			reason := string(res.Status)
			if res.Err != "" {
				reason = fmt.Sprintf("%s: %s", res.Status, res.Err)
			}
			risks = append(risks, domain.RiskItem{Role: res.Role, Reason: reason})
		}
	}

	if okCount == 0 {
		risks = append(risks, domain.RiskItem{Reason: "total evidence failure: no unit returned a usable result"})
	}

	return risks
}

// classifyEvidence extracts strengths, weaknesses, and headline factors from
// the usable results, echoing what analysts look at first: patent position,
// trial activity, and market opportunity.
func (s *Synthesizer) classifyEvidence(okResults []domain.UnitResult) (strengths, weaknesses, keyFactors []string) {
	for _, res := range okResults {
		switch res.Role {
		case domain.RolePatent:
			if status, ok := res.Finding("patent_status"); ok {
				keyFactors = append(keyFactors, fmt.Sprintf("Patent status: %s", status))
			}
			if fto, ok := res.Finding("fto_status"); ok && fto != "Clear" {
				weaknesses = append(weaknesses, fmt.Sprintf("Freedom-to-operate flagged as %s", fto))
			}
		case domain.RoleClinical:
			if trials, ok := res.Finding("active_trials"); ok {
				keyFactors = append(keyFactors, fmt.Sprintf("Active clinical trials: %s", trials))
			}
		case domain.RoleMarket:
			if opp, ok := res.Finding("opportunity_score"); ok {
				keyFactors = append(keyFactors, fmt.Sprintf("Market opportunity score: %s", opp))
			}
		}

		if res.Score == nil {
			continue
		}
		switch {
		case *res.Score >= s.cfg.ProceedThreshold:
			strengths = append(strengths, fmt.Sprintf("Strong %s evidence (score %.0f)", res.Role, *res.Score))
		case *res.Score < s.cfg.CautionThreshold:
			weaknesses = append(weaknesses, fmt.Sprintf("Weak %s evidence (score %.0f)", res.Role, *res.Score))
		}
	}
	return strengths, weaknesses, keyFactors
}

func (s *Synthesizer) summarize(report domain.SynthesisReport) string {
	return fmt.Sprintf("Analysis of %s suggests %s with %s confidence (score %.1f/100, %d of %d evidence domains reporting).",
		report.MoleculeID,
		report.Recommendation,
		report.Confidence,
		report.OverallScore,
		report.OKCount(),
		len(report.Units))
}

func orderedByRole(results []domain.UnitResult) []domain.UnitResult {
	ordered := make([]domain.UnitResult, 0, len(results))
	for _, role := range domain.Roles {
		for _, res := range results {
			if res.Role == role {
				ordered = append(ordered, res)
			}
		}
	}
	// Preserve anything with an out-of-catalog role so nothing is silently
	// dropped; the validator has already stamped it invalid-schema.
	for _, res := range results {
		if domain.RoleIndex(res.Role) == -1 {
			ordered = append(ordered, res)
		}
	}
	return ordered
}
