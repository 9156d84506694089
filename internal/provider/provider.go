// Package provider defines the named capabilities generators depend on and
// export, and the registry binding a consumer's slots to producer exports.
package provider

import (
	"fmt"

	"github.com/toyz/scaffold/internal/errors"
)

// Type is a named capability contract. Providers match by name only.
type Type struct {
	Name string
	// ReadOnly consumers only read the provider, so they build after its
	// producer. Consumers of a mutable provider build before it.
	ReadOnly bool
}

// ReadOnly declares a read-only provider type
func ReadOnly(name string) Type {
	return Type{Name: name, ReadOnly: true}
}

// Mutable declares a provider type whose consumers contribute to it
func Mutable(name string) Type {
	return Type{Name: name}
}

func (t Type) String() string {
	return t.Name
}

// Dependency is a named slot a generator requires
type Dependency struct {
	Type     Type
	Optional bool
}

// Export is a named slot a generator produces
type Export struct {
	Type Type
	// Global exports are visible to every node when scoped resolution finds
	// no producer.
	Global bool
}

// Exports maps export slot names to provider values
type Exports map[string]interface{}

// Dependencies maps dependency slot names to resolved provider values.
// Unresolved optional slots are present with a nil value.
type Dependencies map[string]interface{}

// Freezer is implemented by live provider values that become read-only once
// their owner starts building.
type Freezer interface {
	Freeze()
}

// Value returns the provider bound to slot as T
func Value[T any](deps Dependencies, slot string) (T, error) {
	var zero T
	v, ok := deps[slot]
	if !ok {
		return zero, errors.Newf(errors.UnresolvedDependencyErrorCode, "dependency slot '%s' is not declared", slot)
	}
	if v == nil {
		return zero, errors.Newf(errors.UnresolvedDependencyErrorCode, "optional dependency '%s' has no producer", slot)
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Newf(errors.UnknownErrorCode, "dependency '%s' is %T, not %T", slot, v, zero)
	}
	return t, nil
}

// Optional returns the provider bound to slot as T, or false when the slot
// resolved to no producer.
func Optional[T any](deps Dependencies, slot string) (T, bool) {
	t, err := Value[T](deps, slot)
	return t, err == nil
}

// MustValue is like Value but panics. For tests.
func MustValue[T any](deps Dependencies, slot string) T {
	t, err := Value[T](deps, slot)
	if err != nil {
		panic(fmt.Sprintf("provider: %v", err))
	}
	return t
}
