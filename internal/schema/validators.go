package schema

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"
)

// Validator validates a converted field value of type T
type Validator[T any] func(T) error

// Typed adapts typed validators to a Field.Validator, running them in order
func Typed[T any](validators ...Validator[T]) func(interface{}) error {
	return func(value interface{}) error {
		v, ok := value.(T)
		if !ok {
			var zero T
			return fmt.Errorf("expected %T, got %T", zero, value)
		}
		for _, validator := range validators {
			if err := validator(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// NotEmpty validates that a string is not blank
func NotEmpty() Validator[string] {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("cannot be empty")
		}
		return nil
	}
}

// GoIdentifier validates that a string is a valid Go identifier
func GoIdentifier() Validator[string] {
	return func(value string) error {
		if !token.IsIdentifier(value) {
			return fmt.Errorf("'%s' is not a valid Go identifier", value)
		}
		return nil
	}
}

// Matches validates that a string matches pattern
func Matches(pattern string) Validator[string] {
	regex := regexp.MustCompile(pattern)
	return func(value string) error {
		if !regex.MatchString(value) {
			return fmt.Errorf("must match pattern '%s'", pattern)
		}
		return nil
	}
}

// OneOf validates that a value is one of the allowed values
func OneOf[T comparable](allowed ...T) Validator[T] {
	return func(value T) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v, got %v", allowed, value)
	}
}

// MinItems validates that a slice has at least min elements
func MinItems[T any](min int) Validator[[]T] {
	return func(value []T) error {
		if len(value) < min {
			return fmt.Errorf("must have at least %d items, got %d", min, len(value))
		}
		return nil
	}
}

// Each validates every element of a slice
func Each[T any](item Validator[T]) Validator[[]T] {
	return func(value []T) error {
		for i, v := range value {
			if err := item(v); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}
}

// Unique validates that a string slice has no duplicates
func Unique() Validator[[]string] {
	return func(value []string) error {
		seen := make(map[string]bool, len(value))
		for _, v := range value {
			if seen[v] {
				return fmt.Errorf("duplicate value '%s'", v)
			}
			seen[v] = true
		}
		return nil
	}
}
