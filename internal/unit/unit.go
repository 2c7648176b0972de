package unit

import (
	"context"
	"fmt"

	"MoleculeRadar/internal/domain"
)

// Request carries all parameters required to evaluate one molecule.
type Request struct {
	MoleculeID string
	Indication string
	// Question is only set in deep-dive mode; units answer it against their
	// own evidence instead of producing a fresh scored result.
	Question string
	Options  map[string]string
}

// EvidenceUnit is the capability contract every evidence-gathering role
// implements. Evaluate must respect ctx cancellation; the orchestrator maps
// an error return to a failed result and ctx expiry to a timeout result, so
// a unit never aborts the pipeline.
type EvidenceUnit interface {
	Role() domain.UnitRole
	Evaluate(ctx context.Context, req Request) (domain.UnitResult, error)
}

// Registry keeps a mapping from unit roles to their implementations.
type Registry struct {
	units map[domain.UnitRole]EvidenceUnit
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: map[domain.UnitRole]EvidenceUnit{}}
}

// Register adds or replaces a unit implementation.
func (r *Registry) Register(u EvidenceUnit) {
	if r.units == nil {
		r.units = map[domain.UnitRole]EvidenceUnit{}
	}
	r.units[u.Role()] = u
}

// Resolve returns a unit by role or an error if it is absent.
func (r *Registry) Resolve(role domain.UnitRole) (EvidenceUnit, error) {
	if u, ok := r.units[role]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("unit for role %s is not registered", role)
}

// Roles returns the registered roles in the fixed role order.
func (r *Registry) Roles() []domain.UnitRole {
	roles := make([]domain.UnitRole, 0, len(r.units))
	for _, role := range domain.Roles {
		if _, ok := r.units[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}
