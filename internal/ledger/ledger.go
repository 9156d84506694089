// Package ledger ensures a shared named artifact is emitted once per output
// target even when several generators need it.
package ledger

import (
	"sort"
	"sync"
)

// Registration is the outcome of TryRegister
type Registration struct {
	// AlreadyRegistered is true when another caller registered the key first
	// and is responsible for emitting the artifact.
	AlreadyRegistered bool
	// Owner identifies the caller that registered the key first
	Owner string
}

// Ledger records which artifact keys were registered per target
type Ledger struct {
	mu      sync.Mutex
	targets map[string]map[string]string
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{targets: make(map[string]map[string]string)}
}

// TryRegister registers key for target on behalf of by. The first caller
// gets AlreadyRegistered=false and must emit the artifact; later callers
// must skip emission.
func (l *Ledger) TryRegister(target, key, by string) Registration {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys, ok := l.targets[target]
	if !ok {
		keys = make(map[string]string)
		l.targets[target] = keys
	}
	if owner, exists := keys[key]; exists {
		return Registration{AlreadyRegistered: true, Owner: owner}
	}
	keys[key] = by
	return Registration{Owner: by}
}

// IsRegistered reports whether key has been registered for target
func (l *Ledger) IsRegistered(target, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.targets[target][key]
	return ok
}

// Registered returns the keys registered for target, sorted
func (l *Ledger) Registered(target string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]string, 0, len(l.targets[target]))
	for k := range l.targets[target] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Targets returns every target with at least one registration, sorted
func (l *Ledger) Targets() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	targets := make([]string, 0, len(l.targets))
	for t := range l.targets {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}
