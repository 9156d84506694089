package errors

import (
	"fmt"
	"strings"
)

// SchemaValidationError reports a node configuration that does not match its generator schema
type SchemaValidationError struct {
	*BaseError
	Field    string      // configuration field that failed validation
	Value    interface{} // offending value, if any
	Expected string      // what was expected
}

// NewSchemaValidationError creates a schema validation error for a node field
func NewSchemaValidationError(path, field, message string) *SchemaValidationError {
	return &SchemaValidationError{
		BaseError: New(SchemaValidationErrorCode, fmt.Sprintf("config field '%s': %s", field, message)).
			WithPath(path).
			WithContext("field", field),
		Field: field,
	}
}

// WithValue records the offending value
func (e *SchemaValidationError) WithValue(value interface{}) *SchemaValidationError {
	e.Value = value
	e.BaseError.WithContext("value", value)
	return e
}

// WithExpected records what the schema expected
func (e *SchemaValidationError) WithExpected(expected string) *SchemaValidationError {
	e.Expected = expected
	e.BaseError.WithContext("expected", expected)
	return e
}

// UnresolvedDependencyError reports a dependency slot with no producing node
type UnresolvedDependencyError struct {
	*BaseError
	Slot     string // dependency slot name
	Provider string // provider type name that was searched for
}

// NewUnresolvedDependencyError creates an unresolved dependency error
func NewUnresolvedDependencyError(path, slot, provider string) *UnresolvedDependencyError {
	return &UnresolvedDependencyError{
		BaseError: Newf(UnresolvedDependencyErrorCode, "dependency '%s' (provider '%s') has no producer", slot, provider).
			WithPath(path).
			WithContext("slot", slot).
			WithContext("provider", provider).
			WithSuggestions(
				fmt.Sprintf("Add a generator exporting '%s' to an ancestor or sibling of %s", provider, path),
				"Mark the dependency optional if the generator can run without it",
			),
		Slot:     slot,
		Provider: provider,
	}
}

// AmbiguousDependencyError reports a dependency slot with several candidate producers
type AmbiguousDependencyError struct {
	*BaseError
	Slot       string   // dependency slot name
	Provider   string   // provider type name
	Candidates []string // paths of the candidate producers
}

// NewAmbiguousDependencyError creates an ambiguous dependency error
func NewAmbiguousDependencyError(path, slot, provider string, candidates []string) *AmbiguousDependencyError {
	return &AmbiguousDependencyError{
		BaseError: Newf(AmbiguousDependencyErrorCode, "dependency '%s' (provider '%s') matches %d producers: %s",
			slot, provider, len(candidates), strings.Join(candidates, ", ")).
			WithPath(path).
			WithContext("slot", slot).
			WithContext("provider", provider).
			WithContext("candidates", candidates).
			WithSuggestion(fmt.Sprintf("Add refs: {%s: <path>} to pick one producer explicitly", slot)),
		Slot:       slot,
		Provider:   provider,
		Candidates: candidates,
	}
}

// CyclicDependencyError reports a cycle in the wire or build order
type CyclicDependencyError struct {
	*BaseError
	Phase string   // "wire" or "build"
	Cycle []string // node paths forming the cycle, first node repeated at the end
}

// NewCyclicDependencyError creates a cyclic dependency error
func NewCyclicDependencyError(phase string, cycle []string) *CyclicDependencyError {
	var path string
	if len(cycle) > 0 {
		path = cycle[0]
	}
	return &CyclicDependencyError{
		BaseError: Newf(CyclicDependencyErrorCode, "%s order has a cycle: %s", phase, strings.Join(cycle, " -> ")).
			WithPath(path).
			WithContext("phase", phase).
			WithContext("cycle", cycle),
		Phase: phase,
		Cycle: cycle,
	}
}
