package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ScaffoldError defines the base interface for all scaffold engine errors
type ScaffoldError interface {
	error
	ErrorCode() ErrorCode
	NodePath() string
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode represents the type of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota

	// Input errors
	SchemaValidationErrorCode
	ConfigurationErrorCode

	// Graph construction errors
	UnresolvedDependencyErrorCode
	AmbiguousDependencyErrorCode
	CyclicDependencyErrorCode

	// Contribution errors
	ScalarConflictErrorCode
	PlaceholderConflictErrorCode
	FrozenStateErrorCode
	TemplateErrorCode

	// Execution errors
	HookExecutionErrorCode
	FileSystemErrorCode
	CommandErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SchemaValidationErrorCode:
		return "SchemaValidationError"
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case UnresolvedDependencyErrorCode:
		return "UnresolvedDependency"
	case AmbiguousDependencyErrorCode:
		return "AmbiguousDependency"
	case CyclicDependencyErrorCode:
		return "CyclicDependency"
	case ScalarConflictErrorCode:
		return "ScalarConflictError"
	case PlaceholderConflictErrorCode:
		return "PlaceholderConflictError"
	case FrozenStateErrorCode:
		return "FrozenStateError"
	case TemplateErrorCode:
		return "TemplateError"
	case HookExecutionErrorCode:
		return "HookExecutionError"
	case FileSystemErrorCode:
		return "FileSystemError"
	case CommandErrorCode:
		return "CommandError"
	default:
		return "UnknownError"
	}
}

// BaseError provides a common implementation of the ScaffoldError interface
type BaseError struct {
	Code        ErrorCode              // type of error
	Message     string                 // error message
	Path        string                 // generator tree path the error belongs to
	Cause       error                  // underlying error cause
	ContextData map[string]interface{} // additional context information
	Hints       []string               // helpful suggestions for fixing the error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Path == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Path, msg)
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// NodePath returns the generator tree path where the error occurred
func (e *BaseError) NodePath() string {
	return e.Path
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Suggestions returns helpful suggestions for fixing the error
func (e *BaseError) Suggestions() []string {
	return e.Hints
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithPath sets the generator tree path of the error
func (e *BaseError) WithPath(path string) *BaseError {
	e.Path = path
	return e
}

// WithCause adds an underlying error cause
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// WithSuggestions adds multiple helpful suggestions
func (e *BaseError) WithSuggestions(suggestions ...string) *BaseError {
	e.Hints = append(e.Hints, suggestions...)
	return e
}

// New creates a new BaseError with the specified code and message
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Hints:   make([]string, 0),
	}
}

// Newf creates a new BaseError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Hints:   make([]string, 0),
	}
}

// Wrapf creates a new error that wraps another error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *BaseError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// MultipleErrors represents multiple errors collected together
type MultipleErrors struct {
	Errors []ScaffoldError
}

// Error implements the error interface
func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// ErrorCode returns the error code (uses the first error's code)
func (e *MultipleErrors) ErrorCode() ErrorCode {
	if len(e.Errors) == 0 {
		return UnknownErrorCode
	}
	return e.Errors[0].ErrorCode()
}

// NodePath returns the path of the first error
func (e *MultipleErrors) NodePath() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].NodePath()
}

// Context returns combined context from all errors
func (e *MultipleErrors) Context() map[string]interface{} {
	combined := make(map[string]interface{})
	for i, err := range e.Errors {
		for k, v := range err.Context() {
			combined[fmt.Sprintf("error_%d_%s", i, k)] = v
		}
	}
	return combined
}

// Suggestions returns combined suggestions from all errors
func (e *MultipleErrors) Suggestions() []string {
	var suggestions []string
	for _, err := range e.Errors {
		suggestions = append(suggestions, err.Suggestions()...)
	}
	return suggestions
}

// Unwrap returns all collected errors so errors.Is and errors.As see each of them
func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add adds an error to the collection
func (e *MultipleErrors) Add(err ScaffoldError) {
	e.Errors = append(e.Errors, err)
}

// IsEmpty returns true if there are no errors
func (e *MultipleErrors) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Count returns the number of errors
func (e *MultipleErrors) Count() int {
	return len(e.Errors)
}

// GetByCode returns all errors of a specific type
func (e *MultipleErrors) GetByCode(code ErrorCode) []ScaffoldError {
	var result []ScaffoldError
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			result = append(result, err)
		}
	}
	return result
}

// HasCode returns true if any error of the specified type exists
func (e *MultipleErrors) HasCode(code ErrorCode) bool {
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			return true
		}
	}
	return false
}

// ErrOrNil returns the collection as an error, or nil when nothing was collected
func (e *MultipleErrors) ErrOrNil() error {
	if e == nil || e.IsEmpty() {
		return nil
	}
	return e
}

// NewMultipleErrors creates a new MultipleErrors collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{
		Errors: make([]ScaffoldError, 0),
	}
}

// CollectErrors creates a MultipleErrors from a slice of ScaffoldErrors
func CollectErrors(errors ...ScaffoldError) *MultipleErrors {
	return &MultipleErrors{
		Errors: errors,
	}
}

// AddToMultiple adds an error to a MultipleErrors, creating it if nil
func AddToMultiple(multiple **MultipleErrors, err ScaffoldError) {
	if *multiple == nil {
		*multiple = NewMultipleErrors()
	}
	(*multiple).Add(err)
}

// AtPath returns err located at the node path. A BaseError without a path
// gets path; any other error is wrapped as unknown.
func AtPath(err error, path string) ScaffoldError {
	var base *BaseError
	if stderrors.As(err, &base) {
		if base.Path == "" {
			base.Path = path
		}
		return base
	}
	var se ScaffoldError
	if stderrors.As(err, &se) {
		return se
	}
	return Wrap(UnknownErrorCode, "unexpected error", err).WithPath(path)
}

// CodeOf returns the ErrorCode carried by err, walking wrapped errors
func CodeOf(err error) ErrorCode {
	for err != nil {
		switch e := err.(type) {
		case ScaffoldError:
			return e.ErrorCode()
		case *MultipleErrors:
			return e.ErrorCode()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return UnknownErrorCode
		}
		err = u.Unwrap()
	}
	return UnknownErrorCode
}
