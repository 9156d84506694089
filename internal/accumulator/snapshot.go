package accumulator

import "sort"

// Snapshot is a read-only view of an accumulator taken at one point in time
type Snapshot struct {
	owner   string
	keys    []string
	values  map[string]interface{}
	items   map[string][]interface{}
	setters map[string]string
}

// Owner returns the path of the owning node
func (s *Snapshot) Owner() string {
	return s.owner
}

// Keys returns entry keys in declaration order
func (s *Snapshot) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Value returns a copy of a scalar or overwrite entry
func (s *Snapshot) Value(key string) (interface{}, bool) {
	v, ok := s.values[key]
	return clone(v), ok
}

// Items returns a copy of an append-unique sequence
func (s *Snapshot) Items(key string) []interface{} {
	if s.items[key] == nil {
		return nil
	}
	return cloneSlice(s.items[key])
}

// Setter returns who last wrote key
func (s *Snapshot) Setter(key string) string {
	return s.setters[key]
}

// GetString returns a string entry, or "" when absent
func (s *Snapshot) GetString(key string) string {
	v, _ := Get[string](s, key)
	return v
}

// Get returns the value of key converted to T
func Get[T any](s *Snapshot, key string) (T, bool) {
	var zero T
	v, ok := s.values[key]
	if !ok {
		return zero, false
	}
	t, ok := clone(v).(T)
	return t, ok
}

// ItemsAs returns the items of key that are of type T, in order
func ItemsAs[T any](s *Snapshot, key string) []T {
	items := s.items[key]
	out := make([]T, 0, len(items))
	for _, item := range items {
		if t, ok := clone(item).(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// clone copies the maps and slices decoded configuration values are built
// from. Other values are returned as is.
func clone(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = clone(item)
		}
		return out
	case []interface{}:
		return cloneSlice(v)
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, item := range v {
			out[k] = item
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func cloneSlice(items []interface{}) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = clone(item)
	}
	return out
}
