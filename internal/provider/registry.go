package provider

import (
	"sort"
	"sync"

	"github.com/toyz/scaffold/internal/errors"
)

// Binding points a consumer's dependency slot at one export of a producer
type Binding struct {
	Producer string // node path of the producer
	Export   string // export slot on the producer
	Type     Type
}

// Registry holds the exports declared by wired nodes and the dependency
// bindings computed for each consumer.
type Registry struct {
	mu       sync.RWMutex
	exports  map[string]Exports
	bindings map[string]map[string]*Binding
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		exports:  make(map[string]Exports),
		bindings: make(map[string]map[string]*Binding),
	}
}

// Bind records how a consumer's slot resolves. A nil binding marks an
// optional slot without producer.
func (r *Registry) Bind(consumer, slot string, b *Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.bindings[consumer]
	if !ok {
		slots = make(map[string]*Binding)
		r.bindings[consumer] = slots
	}
	slots[slot] = b
}

// Binding returns the binding of a consumer slot
func (r *Registry) Binding(consumer, slot string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[consumer][slot]
	return b, ok
}

// DeclareExport publishes a value for an export slot of node
func (r *Registry) DeclareExport(node, slot string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exports, ok := r.exports[node]
	if !ok {
		exports = make(Exports)
		r.exports[node] = exports
	}
	if _, exists := exports[slot]; exists {
		return errors.Newf(errors.HookExecutionErrorCode, "export '%s' declared twice", slot).WithPath(node)
	}
	exports[slot] = value
	return nil
}

// Exports returns the values node has exported so far
func (r *Registry) Exports(node string) Exports {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Exports, len(r.exports[node]))
	for k, v := range r.exports[node] {
		out[k] = v
	}
	return out
}

// ResolveDependency returns the live value bound to a consumer slot
func (r *Registry) ResolveDependency(consumer, slot string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slots, ok := r.bindings[consumer]
	if !ok {
		return nil, errors.NewUnresolvedDependencyError(consumer, slot, "")
	}
	b, ok := slots[slot]
	if !ok {
		return nil, errors.NewUnresolvedDependencyError(consumer, slot, "")
	}
	if b == nil {
		return nil, nil
	}
	value, ok := r.exports[b.Producer][b.Export]
	if !ok {
		return nil, errors.Newf(errors.UnresolvedDependencyErrorCode,
			"producer %s has not exported '%s' yet", b.Producer, b.Export).
			WithPath(consumer).
			WithContext("slot", slot)
	}
	return value, nil
}

// Dependencies resolves every bound slot of consumer
func (r *Registry) Dependencies(consumer string) (Dependencies, error) {
	r.mu.RLock()
	slots := make([]string, 0, len(r.bindings[consumer]))
	for slot := range r.bindings[consumer] {
		slots = append(slots, slot)
	}
	r.mu.RUnlock()
	sort.Strings(slots)

	deps := make(Dependencies, len(slots))
	for _, slot := range slots {
		v, err := r.ResolveDependency(consumer, slot)
		if err != nil {
			return nil, err
		}
		deps[slot] = v
	}
	return deps, nil
}
