package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound  = errors.New("registro no encontrado")
	ErrDuplicate = errors.New("registro duplicado")
)

// ValidationError signals malformed or out-of-range input. Maps to 422.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StateError signals an operation attempted in a sale status that does not
// permit it. Maps to 409.
type StateError struct {
	Entity  string
	Current string
	Op      string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("operación %q no permitida para %s en estado %q", e.Op, e.Entity, e.Current)
}

// AvailabilityConflictError signals that one or more units were taken by a
// concurrent sale between selection and reservation. Maps to 409.
type AvailabilityConflictError struct {
	UnitIDs []uint
}

func (e *AvailabilityConflictError) Error() string {
	return fmt.Sprintf("unidades no disponibles: %v", e.UnitIDs)
}

// InconsistencyError signals a broken internal invariant, such as a split
// that fails to conserve totals. Maps to 500 and is always reported.
type InconsistencyError struct {
	Message string
}

func (e *InconsistencyError) Error() string {
	return "inconsistencia interna: " + e.Message
}

// NewInconsistencyError creates an inconsistency error
func NewInconsistencyError(format string, args ...interface{}) *InconsistencyError {
	return &InconsistencyError{Message: fmt.Sprintf(format, args...)}
}
