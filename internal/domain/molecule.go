package domain

import "time"

// UnitRole identifies one of the six evidence-gathering domains.
type UnitRole string

const (
	RolePatent   UnitRole = "patent"
	RoleClinical UnitRole = "clinical"
	RoleMarket   UnitRole = "market"
	RoleWebIntel UnitRole = "webintel"
	RoleTrade    UnitRole = "trade"
	RoleInternal UnitRole = "internal"
)

// Roles lists every role in the fixed order used for reports and synthesis.
var Roles = []UnitRole{
	RolePatent,
	RoleClinical,
	RoleMarket,
	RoleWebIntel,
	RoleTrade,
	RoleInternal,
}

// KnownRole reports whether the role is one of the six dispatched roles.
func KnownRole(role UnitRole) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleIndex returns the position of a role in the fixed order, or -1.
func RoleIndex(role UnitRole) int {
	for i, r := range Roles {
		if r == role {
			return i
		}
	}
	return -1
}

// UnitStatus enumerates the terminal outcomes of a unit evaluation.
type UnitStatus string

const (
	StatusOK            UnitStatus = "ok"
	StatusFailed        UnitStatus = "failed"
	StatusTimeout       UnitStatus = "timeout"
	StatusInvalidSchema UnitStatus = "invalid-schema"
)

// AnalysisMode selects between the three pipeline entry points.
type AnalysisMode string

const (
	ModeSingle   AnalysisMode = "single"
	ModeCompare  AnalysisMode = "compare"
	ModeDeepDive AnalysisMode = "deep-dive"
)

// UnitOverride carries optional per-unit request configuration.
type UnitOverride struct {
	Deadline time.Duration
	Options  map[string]string
}

// AnalysisRequest describes one analysis run. Immutable once created.
type AnalysisRequest struct {
	ID             string
	MoleculeID     string
	Indication     string
	Mode           AnalysisMode
	Overrides      map[UnitRole]UnitOverride
	GlobalDeadline time.Duration
	SubmittedAt    time.Time
}

// Finding is a single role-specific structured fact.
type Finding struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UnitResult is the validated output of one evidence unit. It is owned by the
// producing unit until validation and immutable afterwards.
type UnitResult struct {
	Role       UnitRole   `json:"role"`
	Status     UnitStatus `json:"status"`
	Score      *float64   `json:"score,omitempty"`
	Findings   []Finding  `json:"findings,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Err        string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Finding returns the value of a named structured field.
func (r UnitResult) Finding(field string) (string, bool) {
	for _, f := range r.Findings {
		if f.Field == field {
			return f.Value, true
		}
	}
	return "", false
}

// ScoreOf is a convenience constructor for the optional score field.
func ScoreOf(v float64) *float64 { return &v }
