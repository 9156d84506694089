// Package accumulator implements the conflict-aware key/value store a
// generator exports so its dependents can contribute configuration before
// the owner builds.
package accumulator

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/toyz/scaffold/internal/errors"
)

// Policy is the merge policy of an accumulator entry
type Policy int

const (
	// Scalar entries may be set once; a second set is a ScalarConflictError
	Scalar Policy = iota
	// AppendUnique entries are ordered sequences deduplicated by identity
	AppendUnique
	// Overwrite entries accept any number of writes, last write wins
	Overwrite
)

func (p Policy) String() string {
	switch p {
	case Scalar:
		return "scalar"
	case AppendUnique:
		return "append-unique"
	case Overwrite:
		return "overwrite"
	default:
		return "unknown"
	}
}

// IdentityFunc returns the identity key used to deduplicate appended items
type IdentityFunc func(item interface{}) interface{}

// ByField returns an IdentityFunc keyed on a map field, e.g. ByField("id")
func ByField(name string) IdentityFunc {
	return func(item interface{}) interface{} {
		if m, ok := item.(map[string]interface{}); ok {
			return m[name]
		}
		return item
	}
}

// DefaultsSetter names the contributor recorded for pre-seeded defaults
const DefaultsSetter = "<defaults>"

type entry struct {
	policy   Policy
	value    interface{}
	set      bool
	setter   string
	items    []interface{}
	keys     []interface{}
	identity IdentityFunc
}

// Accumulator is the mutable handle of a ConfigAccumulator
type Accumulator struct {
	mu                    sync.RWMutex
	owner                 string
	entries               map[string]*entry
	order                 []string
	overwriteableDefaults bool
	frozen                bool
}

// Option configures an Accumulator
type Option func(*Accumulator)

// WithOverwriteableDefaults lets the first contributor replace a scalar that
// still holds its pre-seeded default.
func WithOverwriteableDefaults() Option {
	return func(a *Accumulator) {
		a.overwriteableDefaults = true
	}
}

// WithDefaults pre-seeds entries. Keys already declared keep their policy,
// undeclared keys become Overwrite entries.
func WithDefaults(defaults map[string]interface{}) Option {
	return func(a *Accumulator) {
		for _, key := range sortedKeys(defaults) {
			e := a.entry(key, Overwrite)
			e.value = defaults[key]
			e.set = true
			e.setter = DefaultsSetter
		}
	}
}

// WithEntry declares an entry with a policy
func WithEntry(key string, policy Policy) Option {
	return func(a *Accumulator) {
		a.entry(key, policy)
	}
}

// WithIdentity declares an AppendUnique entry deduplicated by identity
func WithIdentity(key string, identity IdentityFunc) Option {
	return func(a *Accumulator) {
		a.entry(key, AppendUnique).identity = identity
	}
}

// New creates an accumulator owned by the node at owner.
// Options are applied in order, so declare entries before seeding defaults.
func New(owner string, opts ...Option) *Accumulator {
	a := &Accumulator{
		owner:   owner,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Owner returns the path of the owning node
func (a *Accumulator) Owner() string {
	return a.owner
}

func (a *Accumulator) entry(key string, policy Policy) *entry {
	if e, ok := a.entries[key]; ok {
		return e
	}
	e := &entry{policy: policy}
	a.entries[key] = e
	a.order = append(a.order, key)
	return e
}

func (a *Accumulator) mutable(by, key string, policy Policy) (*entry, error) {
	if a.frozen {
		return nil, errors.NewFrozenStateError(fmt.Sprintf("accumulator entry '%s'", key), a.owner, by)
	}
	e, ok := a.entries[key]
	if !ok {
		return a.entry(key, policy), nil
	}
	if e.policy != policy {
		return nil, errors.Newf(errors.ConfigurationErrorCode,
			"accumulator entry '%s' has policy %s, cannot use it as %s", key, e.policy, policy).
			WithPath(by).
			WithContext("owner", a.owner)
	}
	return e, nil
}

// Declare declares key with policy. Declaring an existing key with another
// policy is an error.
func (a *Accumulator) Declare(by, key string, policy Policy) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.mutable(by, key, policy)
	return err
}

// SetScalar sets a set-once entry. by identifies the contributor and is
// reported, along with the original setter, on conflict.
func (a *Accumulator) SetScalar(by, key string, value interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.mutable(by, key, Scalar)
	if err != nil {
		return err
	}
	if e.set && !(a.overwriteableDefaults && e.setter == DefaultsSetter) {
		return errors.NewScalarConflictError(a.owner, key, e.setter, e.value, by, value)
	}
	e.value = value
	e.set = true
	e.setter = by
	return nil
}

// Set writes an Overwrite entry
func (a *Accumulator) Set(by, key string, value interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.mutable(by, key, Overwrite)
	if err != nil {
		return err
	}
	e.value = value
	e.set = true
	e.setter = by
	return nil
}

// AppendUnique appends items whose identity is not yet in the sequence and
// returns how many were added. identity overrides the entry's declared
// identity; with neither, items are compared by value.
func (a *Accumulator) AppendUnique(by, key string, items []interface{}, identity IdentityFunc) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.mutable(by, key, AppendUnique)
	if err != nil {
		return 0, err
	}
	if identity == nil {
		identity = e.identity
	}

	added := 0
	for _, item := range items {
		id := item
		if identity != nil {
			id = identity(item)
		}
		if containsKey(e.keys, id) {
			continue
		}
		e.items = append(e.items, item)
		e.keys = append(e.keys, id)
		added++
	}
	if added > 0 {
		e.set = true
		e.setter = by
	}
	return added, nil
}

// Freeze makes every further mutation fail with a FrozenStateError
func (a *Accumulator) Freeze() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = true
}

// Frozen reports whether the accumulator has been frozen
func (a *Accumulator) Frozen() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frozen
}

// Snapshot returns an immutable copy of the current entries. Maps and
// slices held in entries are copied deeply.
func (a *Accumulator) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := &Snapshot{
		owner:   a.owner,
		keys:    append([]string(nil), a.order...),
		values:  make(map[string]interface{}, len(a.entries)),
		items:   make(map[string][]interface{}),
		setters: make(map[string]string, len(a.entries)),
	}
	for key, e := range a.entries {
		s.setters[key] = e.setter
		if e.policy == AppendUnique {
			s.items[key] = cloneSlice(e.items)
			continue
		}
		if e.set {
			s.values[key] = clone(e.value)
		}
	}
	return s
}

func containsKey(keys []interface{}, id interface{}) bool {
	for _, k := range keys {
		if reflect.DeepEqual(k, id) {
			return true
		}
	}
	return false
}
