package usecase

import (
	"testing"

	"MoleculeRadar/internal/domain"
)

func okPatentResult(score float64) domain.UnitResult {
	return domain.UnitResult{
		Role:   domain.RolePatent,
		Status: domain.StatusOK,
		Score:  domain.ScoreOf(score),
		Findings: []domain.Finding{
			{Field: "patent_status", Value: "Active"},
			{Field: "fto_status", Value: "Clear"},
		},
	}
}

func TestValidatePassesWellFormedResult(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	res := v.Validate(okPatentResult(82))

	if res.Status != domain.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", res.Status, res.Err)
	}
	if res.Score == nil || *res.Score != 82 {
		t.Fatalf("score should be preserved, got %v", res.Score)
	}
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	raw := okPatentResult(50)
	raw.Role = "astrology"

	res := v.Validate(raw)
	if res.Status != domain.StatusInvalidSchema {
		t.Fatalf("expected invalid-schema, got %s", res.Status)
	}
	if res.Score != nil {
		t.Fatalf("score should be cleared on violation")
	}
}

func TestValidateRejectsScoreOutOfBounds(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	raw := okPatentResult(120)

	res := v.Validate(raw)
	if res.Status != domain.StatusInvalidSchema {
		t.Fatalf("expected invalid-schema, got %s", res.Status)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	raw := okPatentResult(60)
	raw.Findings = raw.Findings[:1] // drop fto_status

	res := v.Validate(raw)
	if res.Status != domain.StatusInvalidSchema {
		t.Fatalf("expected invalid-schema, got %s", res.Status)
	}
}

func TestValidateRejectsNonNumericField(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	raw := domain.UnitResult{
		Role:   domain.RoleClinical,
		Status: domain.StatusOK,
		Score:  domain.ScoreOf(70),
		Findings: []domain.Finding{
			{Field: "active_trials", Value: "several"},
		},
	}

	res := v.Validate(raw)
	if res.Status != domain.StatusInvalidSchema {
		t.Fatalf("expected invalid-schema, got %s", res.Status)
	}
}

func TestValidateRejectsOKResultWithoutScore(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	raw := okPatentResult(50)
	raw.Score = nil

	res := v.Validate(raw)
	if res.Status != domain.StatusInvalidSchema {
		t.Fatalf("expected invalid-schema, got %s", res.Status)
	}
}

func TestValidatePassesThroughFailedResults(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	raw := domain.UnitResult{Role: domain.RoleTrade, Status: domain.StatusFailed, Err: "upstream down"}

	res := v.Validate(raw)
	if res.Status != domain.StatusFailed {
		t.Fatalf("failed results should pass through, got %s", res.Status)
	}
	if res.Err != "upstream down" {
		t.Fatalf("error reason should be preserved, got %q", res.Err)
	}
}
