package errors

import "fmt"

// ScalarConflictError reports a second write to a set-once accumulator entry
type ScalarConflictError struct {
	*BaseError
	Key              string
	OriginalSetter   string
	OriginalValue    interface{}
	IncomingSetter   string
	IncomingValue    interface{}
	AccumulatorOwner string
}

// NewScalarConflictError creates a scalar conflict error naming both contributors
func NewScalarConflictError(owner, key, originalSetter string, originalValue interface{}, incomingSetter string, incomingValue interface{}) *ScalarConflictError {
	return &ScalarConflictError{
		BaseError: Newf(ScalarConflictErrorCode, "'%s' already set to %v by %s, cannot set to %v from %s",
			key, originalValue, originalSetter, incomingValue, incomingSetter).
			WithPath(owner).
			WithContext("key", key).
			WithContext("original_setter", originalSetter).
			WithContext("incoming_setter", incomingSetter),
		Key:              key,
		OriginalSetter:   originalSetter,
		OriginalValue:    originalValue,
		IncomingSetter:   incomingSetter,
		IncomingValue:    incomingValue,
		AccumulatorOwner: owner,
	}
}

// PlaceholderConflictError reports a non-mergeable placeholder set more than once
type PlaceholderConflictError struct {
	*BaseError
	Template       string
	Placeholder    string
	OriginalSetter string
	IncomingSetter string
}

// NewPlaceholderConflictError creates a placeholder conflict error
func NewPlaceholderConflictError(template, placeholder, originalSetter, incomingSetter string) *PlaceholderConflictError {
	return &PlaceholderConflictError{
		BaseError: Newf(PlaceholderConflictErrorCode, "placeholder %s of template '%s' already set by %s, cannot set again from %s",
			placeholder, template, originalSetter, incomingSetter).
			WithPath(incomingSetter).
			WithContext("template", template).
			WithContext("placeholder", placeholder).
			WithSuggestion("Merge the contributions with fragment.MergeExpressions before setting the placeholder"),
		Template:       template,
		Placeholder:    placeholder,
		OriginalSetter: originalSetter,
		IncomingSetter: incomingSetter,
	}
}

// FrozenStateError reports a mutation attempted after the owner's build began
type FrozenStateError struct {
	*BaseError
	Resource string
	Owner    string
}

// NewFrozenStateError creates a frozen state error
func NewFrozenStateError(resource, owner, by string) *FrozenStateError {
	return &FrozenStateError{
		BaseError: Newf(FrozenStateErrorCode, "%s owned by %s is frozen and cannot be modified", resource, owner).
			WithPath(by).
			WithContext("resource", resource).
			WithContext("owner", owner).
			WithSuggestion("Contribute during wire, or depend on the owner through a mutable provider so you build first"),
		Resource: resource,
		Owner:    owner,
	}
}

// TemplateError reports a composite template misuse
type TemplateError struct {
	*BaseError
	Template    string
	Placeholder string
}

// NewTemplateError creates a template error
func NewTemplateError(template, placeholder, message string) *TemplateError {
	subject := fmt.Sprintf("template '%s'", template)
	if placeholder != "" {
		subject = fmt.Sprintf("%s placeholder %s", subject, placeholder)
	}
	return &TemplateError{
		BaseError: Newf(TemplateErrorCode, "%s: %s", subject, message).
			WithContext("template", template).
			WithContext("placeholder", placeholder),
		Template:    template,
		Placeholder: placeholder,
	}
}

// HookExecutionError wraps an error returned by a generator wire or build hook
type HookExecutionError struct {
	*BaseError
	Phase     string
	Generator string
}

// NewHookExecutionError wraps a hook failure with node path and phase
func NewHookExecutionError(path, generator, phase string, cause error) *HookExecutionError {
	return &HookExecutionError{
		BaseError: Wrapf(HookExecutionErrorCode, cause, "%s hook of generator '%s' failed", phase, generator).
			WithPath(path).
			WithContext("phase", phase).
			WithContext("generator", generator),
		Phase:     phase,
		Generator: generator,
	}
}
