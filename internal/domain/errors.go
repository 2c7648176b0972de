package domain

import "fmt"

// RoutingError indicates a deep-dive question targeted a role that is unknown
// or absent from the prior report. It rejects the request; it is never used
// for unit-level faults, which are contained as UnitResult statuses.
type RoutingError struct {
	Role   UnitRole
	Reason string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing error for role %q: %s", e.Role, e.Reason)
}

// ConfigurationError indicates a malformed request, such as a comparison
// outside the 2-3 molecule bound.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}
