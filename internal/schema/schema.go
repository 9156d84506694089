// Package schema validates generator configuration against a declared shape,
// applying defaults and custom validators.
package schema

import (
	"fmt"
	"sort"

	"github.com/toyz/scaffold/internal/errors"
)

// FieldType represents the type of a configuration field
type FieldType int

const (
	StringType FieldType = iota
	BoolType
	IntType
	StringSliceType
	ListType // list of arbitrary values, typically maps
	MapType
	AnyType
)

// String returns the string representation of the field type
func (t FieldType) String() string {
	switch t {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case StringSliceType:
		return "[]string"
	case ListType:
		return "list"
	case MapType:
		return "map"
	case AnyType:
		return "any"
	default:
		return "unknown"
	}
}

// Field defines the specification for a configuration field
type Field struct {
	Type        FieldType               // Field type
	Required    bool                    // Whether the field must be provided
	Default     interface{}             // Default value if not provided
	Description string                  // Field description
	Validator   func(interface{}) error // Custom validator, run on the converted value
}

// CrossFieldCheck validates combinations of fields after conversion and defaults
type CrossFieldCheck func(Values) error

// Schema defines the configuration shape of one generator
type Schema struct {
	Fields map[string]Field
	Checks []CrossFieldCheck
	// AllowUnknown keeps fields not declared in Fields instead of rejecting them
	AllowUnknown bool
}

// Empty is a schema accepting no fields at all
var Empty = &Schema{}

// Validate converts raw configuration into Values, applies defaults and runs
// validators. Every failure is reported as a SchemaValidationError against
// path; the returned error is a *errors.MultipleErrors.
func (s *Schema) Validate(path string, raw map[string]interface{}) (Values, error) {
	if s == nil {
		s = Empty
	}
	var errs *errors.MultipleErrors
	values := make(Values, len(s.Fields))

	for _, name := range sortedKeys(raw) {
		field, exists := s.Fields[name]
		if !exists {
			if s.AllowUnknown {
				values[name] = raw[name]
				continue
			}
			errors.AddToMultiple(&errs, errors.NewSchemaValidationError(path, name, "unknown field").
				WithValue(raw[name]))
			continue
		}

		converted, err := Convert(raw[name], field.Type)
		if err != nil {
			errors.AddToMultiple(&errs, errors.NewSchemaValidationError(path, name, err.Error()).
				WithValue(raw[name]).
				WithExpected(field.Type.String()))
			continue
		}
		values[name] = converted
	}

	for _, name := range sortedKeys(s.Fields) {
		field := s.Fields[name]
		if _, exists := values[name]; exists {
			continue
		}
		if _, provided := raw[name]; provided {
			// conversion already failed
			continue
		}
		if field.Required {
			errors.AddToMultiple(&errs, errors.NewSchemaValidationError(path, name, "required field is missing").
				WithExpected(field.Type.String()))
			continue
		}
		if field.Default != nil {
			def, err := Convert(field.Default, field.Type)
			if err != nil {
				errors.AddToMultiple(&errs, errors.NewSchemaValidationError(path, name,
					fmt.Sprintf("default value is invalid: %v", err)))
				continue
			}
			values[name] = def
		}
	}

	for _, name := range sortedKeys(s.Fields) {
		field := s.Fields[name]
		value, exists := values[name]
		if !exists || field.Validator == nil {
			continue
		}
		if err := field.Validator(value); err != nil {
			errors.AddToMultiple(&errs, errors.NewSchemaValidationError(path, name, err.Error()).
				WithValue(value))
		}
	}

	if errs != nil {
		return nil, errs
	}

	for _, check := range s.Checks {
		if err := check(values); err != nil {
			errors.AddToMultiple(&errs, errors.NewSchemaValidationError(path, "*", err.Error()))
		}
	}

	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return values, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
