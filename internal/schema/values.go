package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Values holds a validated node configuration
type Values map[string]interface{}

// Has reports whether a field is present after defaults were applied
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// GetString gets a string field
func (v Values) GetString(name string) string {
	if s, ok := v[name].(string); ok {
		return s
	}
	return ""
}

// GetBool gets a bool field
func (v Values) GetBool(name string) bool {
	if b, ok := v[name].(bool); ok {
		return b
	}
	return false
}

// GetInt gets an int field
func (v Values) GetInt(name string) int {
	if i, ok := v[name].(int); ok {
		return i
	}
	return 0
}

// GetStringSlice gets a string slice field
func (v Values) GetStringSlice(name string) []string {
	if s, ok := v[name].([]string); ok {
		return s
	}
	return nil
}

// GetMap gets a map field
func (v Values) GetMap(name string) map[string]interface{} {
	if m, ok := v[name].(map[string]interface{}); ok {
		return m
	}
	return nil
}

// GetList gets a list field
func (v Values) GetList(name string) []interface{} {
	if l, ok := v[name].([]interface{}); ok {
		return l
	}
	return nil
}

// Keys returns the field names in sorted order
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Convert converts a raw configuration value to the Go type backing t
func Convert(value interface{}, t FieldType) (interface{}, error) {
	switch t {
	case StringType:
		return ConvertToString(value)
	case BoolType:
		return ConvertToBool(value)
	case IntType:
		return ConvertToInt(value)
	case StringSliceType:
		return ConvertToStringSlice(value)
	case ListType:
		return ConvertToList(value)
	case MapType:
		return ConvertToMap(value)
	case AnyType:
		return value, nil
	default:
		return nil, fmt.Errorf("unsupported field type %s", t)
	}
}

// ConvertToString converts a value to string
func ConvertToString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int, int64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected string, got %T", value)
	}
}

// ConvertToBool converts a value to bool
func ConvertToBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert '%s' to bool", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", value)
	}
}

// ConvertToInt converts a value to int
func ConvertToInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected whole number, got %v", v)
		}
		return int(v), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to int", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected int, got %T", value)
	}
}

// ConvertToStringSlice converts a value to a string slice.
// A comma separated string is split into its trimmed, non-empty parts.
func ConvertToStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}

// ConvertToList converts a value to a generic list
func ConvertToList(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", value)
	}
}

// ConvertToMap converts a value to a string keyed map
func ConvertToMap(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("expected string keys, got %T", k)
			}
			out[key] = item
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected map, got %T", value)
	}
}
