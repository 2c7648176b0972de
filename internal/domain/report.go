package domain

import "time"

// Confidence is a categorical measure of how much of the expected evidence succeeded.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// confidenceRank orders confidence levels for comparisons; higher is better.
var confidenceRank = map[Confidence]int{
	ConfidenceNone:   0,
	ConfidenceLow:    1,
	ConfidenceMedium: 2,
	ConfidenceHigh:   3,
}

// Rank returns the ordinal position of the confidence level.
func (c Confidence) Rank() int { return confidenceRank[c] }

// Recommendation is the categorical verdict of a synthesis run.
type Recommendation string

const (
	RecommendProceed Recommendation = "PROCEED"
	RecommendCaution Recommendation = "CAUTION"
	RecommendReject  Recommendation = "REJECT"
)

// RiskItem explains one degraded or low-scoring evidence domain.
type RiskItem struct {
	Role   UnitRole `json:"role"`
	Reason string   `json:"reason"`
}

// SynthesisReport is the aggregated verdict for one molecule. Immutable after
// creation; safe to share across goroutines and serialize for export.
type SynthesisReport struct {
	ID             string         `json:"id"`
	MoleculeID     string         `json:"molecule_id"`
	Indication     string         `json:"indication,omitempty"`
	OverallScore   float64        `json:"overall_score"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     Confidence     `json:"confidence"`
	Units          []UnitResult   `json:"units"`
	Risks          []RiskItem     `json:"risks"`
	Strengths      []string       `json:"strengths,omitempty"`
	Weaknesses     []string       `json:"weaknesses,omitempty"`
	KeyFactors     []string       `json:"key_factors,omitempty"`
	Summary        string         `json:"summary"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// UnitByRole returns the result recorded for a role, if it was dispatched.
func (r SynthesisReport) UnitByRole(role UnitRole) (UnitResult, bool) {
	for _, u := range r.Units {
		if u.Role == role {
			return u, true
		}
	}
	return UnitResult{}, false
}

// OKCount reports how many units completed with status ok.
func (r SynthesisReport) OKCount() int {
	n := 0
	for _, u := range r.Units {
		if u.Status == StatusOK {
			n++
		}
	}
	return n
}

// RankedCandidate pairs a molecule's report with its comparison rank (1-based).
type RankedCandidate struct {
	MoleculeID string          `json:"molecule_id"`
	Report     SynthesisReport `json:"report"`
	Rank       int             `json:"rank"`
}

// ComparisonReport ranks 2-3 molecules analyzed independently. Immutable.
type ComparisonReport struct {
	ID            string            `json:"id"`
	Indication    string            `json:"indication,omitempty"`
	Ranked        []RankedCandidate `json:"ranked"`
	BestCandidate string            `json:"best_candidate"`
	Summary       string            `json:"summary"`
	GeneratedAt   time.Time         `json:"generated_at"`
}
