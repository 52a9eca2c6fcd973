package errors

import (
	"fmt"
	"strings"
)

// FieldViolation describes one rejected input field
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationErrors aggregates field violations so every problem is reported at once
type ValidationErrors struct {
	Errors []FieldViolation `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]FieldViolation, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, reason string) {
	v.Errors = append(v.Errors, FieldViolation{Field: field, Reason: reason})
}

// Addf adds a validation error with a formatted reason
func (v *ValidationErrors) Addf(field string, format string, args ...interface{}) {
	v.Add(field, fmt.Sprintf(format, args...))
}

// Merge appends every violation of other
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasField reports whether a violation was recorded for field
func (v *ValidationErrors) HasField(field string) bool {
	for _, e := range v.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Reason)
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ToAppError converts the collection into a VALIDATION_FAILED AppError, or nil when empty
func (v *ValidationErrors) ToAppError() error {
	if !v.HasErrors() {
		return nil
	}
	violations := make([]FieldViolation, len(v.Errors))
	copy(violations, v.Errors)
	return NewValidationFailedError(violations)
}
