package domain

import (
	"fmt"
)

// ValidationError reports malformed or missing input. It is raised before any
// store call and is always recoverable by correcting the input.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError constructs a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RuleViolation reports that a business invariant would be broken by the
// requested mutation. No write is performed.
type RuleViolation struct {
	Rule   string
	Detail string
}

// Error implements the error interface.
func (e *RuleViolation) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return fmt.Sprintf("rule violation: %s", e.Rule)
	}
	return fmt.Sprintf("rule violation: %s: %s", e.Rule, e.Detail)
}

// NewRuleViolation constructs a RuleViolation for the named rule.
func NewRuleViolation(rule, detail string) *RuleViolation {
	return &RuleViolation{Rule: rule, Detail: detail}
}

// NotFoundError reports that a mutation target vanished between the cached
// read and the store write. Recommended recovery is a forced refresh.
type NotFoundError struct {
	Collection string
	ID         string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s: not found", e.Collection, e.ID)
}

// NewNotFoundError constructs a NotFoundError for the given document.
func NewNotFoundError(collection, id string) *NotFoundError {
	return &NotFoundError{Collection: collection, ID: id}
}

// PersistenceError wraps an underlying store failure. It is never retried by
// the core and is surfaced verbatim.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return fmt.Sprintf("persistence: %v", e.Err)
	}
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewPersistenceError wraps err with the failing operation name.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
