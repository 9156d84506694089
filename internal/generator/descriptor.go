// Package generator defines generator descriptors, the contexts their wire
// and build hooks receive, and the catalog descriptors are registered in.
package generator

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

// WireFunc runs in the wire phase and returns the node's exports
type WireFunc func(ctx context.Context, wc *WireContext) (provider.Exports, error)

// BuildFunc runs in the build phase and queues the node's output
type BuildFunc func(ctx context.Context, bc *BuildContext) error

// DefaultsFunc returns the children a slot gets when the node spec names
// none. It receives the parent's validated configuration.
type DefaultsFunc func(parent schema.Values) ([]NodeSpec, error)

// ChildSlot declares a named group of child generators
type ChildSlot struct {
	// Generator is used for child specs that do not name one
	Generator string
	// Multiple slots hold any number of children named "<slot>.<name>".
	// Single slots hold at most one child named after the slot.
	Multiple bool
	Defaults DefaultsFunc
}

// Descriptor is a reusable kind of generator. Descriptors are immutable
// once registered.
type Descriptor struct {
	Name         string
	Description  string
	Schema       *schema.Schema
	Dependencies map[string]provider.Dependency
	Exports      map[string]provider.Export
	Children     map[string]ChildSlot
	Wire         WireFunc
	Build        BuildFunc
}

var slotNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-]*$`)

// Validate checks the descriptor's own declarations
func (d *Descriptor) Validate() error {
	if d == nil {
		return errors.New(errors.ConfigurationErrorCode, "descriptor is nil")
	}
	if !slotNamePattern.MatchString(d.Name) {
		return errors.Newf(errors.ConfigurationErrorCode, "invalid generator name '%s'", d.Name)
	}

	for _, slot := range sortedKeys(d.Dependencies) {
		if !slotNamePattern.MatchString(slot) {
			return d.invalid("dependency slot", slot)
		}
		if d.Dependencies[slot].Type.Name == "" {
			return errors.Newf(errors.ConfigurationErrorCode,
				"generator '%s': dependency '%s' has no provider type", d.Name, slot)
		}
	}
	for _, slot := range sortedKeys(d.Exports) {
		if !slotNamePattern.MatchString(slot) {
			return d.invalid("export slot", slot)
		}
		if d.Exports[slot].Type.Name == "" {
			return errors.Newf(errors.ConfigurationErrorCode,
				"generator '%s': export '%s' has no provider type", d.Name, slot)
		}
	}
	for _, slot := range sortedKeys(d.Children) {
		if !slotNamePattern.MatchString(slot) {
			return d.invalid("child slot", slot)
		}
	}
	if len(d.Exports) > 0 && d.Wire == nil {
		return errors.Newf(errors.ConfigurationErrorCode,
			"generator '%s' declares exports but has no wire hook", d.Name)
	}
	return nil
}

func (d *Descriptor) invalid(kind, name string) error {
	return errors.Newf(errors.ConfigurationErrorCode, "generator '%s': invalid %s name '%s'", d.Name, kind, name)
}

// ExportsOf returns the export slots of d that carry provider type name, sorted
func (d *Descriptor) ExportsOf(typeName string) []string {
	var slots []string
	for _, slot := range sortedKeys(d.Exports) {
		if d.Exports[slot].Type.Name == typeName {
			slots = append(slots, slot)
		}
	}
	return slots
}

// CheckExports compares the exports a wire hook returned against the
// declared export slots.
func (d *Descriptor) CheckExports(exports provider.Exports) error {
	for _, slot := range sortedKeys(d.Exports) {
		if _, ok := exports[slot]; !ok {
			return fmt.Errorf("declared export '%s' was not returned", slot)
		}
	}
	for _, slot := range sortedKeys(exports) {
		if _, ok := d.Exports[slot]; !ok {
			return fmt.Errorf("returned export '%s' is not declared", slot)
		}
	}
	return nil
}

// Single returns a DefaultsFunc spawning one child with a fixed configuration
func Single(generator string, config map[string]interface{}) DefaultsFunc {
	return func(schema.Values) ([]NodeSpec, error) {
		return []NodeSpec{{Generator: generator, Config: config}}, nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
