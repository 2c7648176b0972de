package usecase

import (
	"fmt"
	"strconv"

	"MoleculeRadar/internal/domain"
)

const (
	scoreMin = 0
	scoreMax = 100
)

// fieldKind describes how a required structured field must be typed.
type fieldKind int

const (
	fieldText fieldKind = iota
	fieldNumeric
)

type fieldSpec struct {
	name string
	kind fieldKind
}

// requiredFields lists the structured findings every ok result must carry,
// per role. Field names follow the schema the evidence units publish.
var requiredFields = map[domain.UnitRole][]fieldSpec{
	domain.RolePatent:   {{"patent_status", fieldText}, {"fto_status", fieldText}},
	domain.RoleClinical: {{"active_trials", fieldNumeric}},
	domain.RoleMarket:   {{"opportunity_score", fieldNumeric}},
	domain.RoleWebIntel: {{"sentiment", fieldText}},
	domain.RoleTrade:    {{"export_volume", fieldNumeric}},
	domain.RoleInternal: {{"prior_studies", fieldNumeric}},
}

// Validator enforces the structural schema of unit results before synthesis.
// A violation is converted into an invalid-schema result, never an error, so
// one unit's malformed output cannot block the others.
type Validator struct{}

// NewValidator builds the schema validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks role, score bounds, and required structured fields. The
// returned result is the validated copy; on violation it is re-stamped with
// status invalid-schema and the score is cleared.
func (v *Validator) Validate(raw domain.UnitResult) domain.UnitResult {
	if !domain.KnownRole(raw.Role) {
		return invalidate(raw, fmt.Sprintf("unknown unit role %q", raw.Role))
	}

	if raw.Score != nil && (*raw.Score < scoreMin || *raw.Score > scoreMax) {
		return invalidate(raw, fmt.Sprintf("score %.2f outside [%d,%d]", *raw.Score, scoreMin, scoreMax))
	}

	// Non-ok results carry no evidence payload to check further.
	if raw.Status != domain.StatusOK {
		return raw
	}

	if raw.Score == nil {
		return invalidate(raw, "ok result is missing a domain score")
	}

	for _, spec := range requiredFields[raw.Role] {
		value, ok := raw.Finding(spec.name)
		if !ok || value == "" {
			return invalidate(raw, fmt.Sprintf("missing required field %q", spec.name))
		}
		if spec.kind == fieldNumeric {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return invalidate(raw, fmt.Sprintf("field %q is not numeric: %q", spec.name, value))
			}
		}
	}

	return raw
}

func invalidate(raw domain.UnitResult, reason string) domain.UnitResult {
	raw.Status = domain.StatusInvalidSchema
	raw.Score = nil
	raw.Err = reason
	return raw
}
