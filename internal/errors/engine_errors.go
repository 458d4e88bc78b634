package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory classifies failures raised by the decision engine
type ErrorCategory string

const (
	// Caller bugs: bad quantities, missing prices, out-of-range scores
	ErrorCategoryInvalidInput ErrorCategory = "INVALID_INPUT"
	// Not enough history; callers degrade to defaults instead of failing
	ErrorCategoryInsufficientData ErrorCategory = "INSUFFICIENT_DATA"
	// Malformed parameters, detected at construction time
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
)

// EngineError represents a categorized error with context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches engine errors by category so errors.Is works against the sentinels below
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return t.Component == "" && t.Operation == "" && t.Category == e.Category
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Sentinels for errors.Is checks
var (
	ErrInvalidInput     = &EngineError{Category: ErrorCategoryInvalidInput}
	ErrInsufficientData = &EngineError{Category: ErrorCategoryInsufficientData}
	ErrConfiguration    = &EngineError{Category: ErrorCategoryConfiguration}
)

// NewEngineError creates a new categorized engine error
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with engine error context
func Wrap(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// NewInvalidInput creates an input validation error
func NewInvalidInput(component, operation, format string, args ...interface{}) *EngineError {
	return NewEngineError(ErrorCategoryInvalidInput, component, operation, fmt.Sprintf(format, args...))
}

// NewInsufficientData creates an error describing missing history
func NewInsufficientData(component, operation, format string, args ...interface{}) *EngineError {
	return NewEngineError(ErrorCategoryInsufficientData, component, operation, fmt.Sprintf(format, args...))
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(component, format string, args ...interface{}) *EngineError {
	return NewEngineError(ErrorCategoryConfiguration, component, "validate", fmt.Sprintf(format, args...))
}

// CategoryOf extracts the category of an engine error, or "" for foreign errors
func CategoryOf(err error) ErrorCategory {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Category
	}
	return ""
}

// IsInvalidInput reports whether err is an InvalidInput engine error
func IsInvalidInput(err error) bool {
	return stderrors.Is(err, ErrInvalidInput)
}

// IsInsufficientData reports whether err is an InsufficientData engine error
func IsInsufficientData(err error) bool {
	return stderrors.Is(err, ErrInsufficientData)
}

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool {
	return stderrors.Is(err, ErrConfiguration)
}

// RangeCheck returns an InvalidInput error when value falls outside [min, max]
func RangeCheck(component, field string, value, min, max float64) error {
	if value != value || value < min || value > max {
		return NewInvalidInput(component, "range_check", "%s must be within [%g, %g], got %g", field, min, max, value).
			WithContext("field", field)
	}
	return nil
}
