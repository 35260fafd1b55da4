package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid farm record")

	// ErrNotReady is returned when scoring is attempted without a fitted bundle.
	ErrNotReady = errors.New("model bundle not ready")

	// ErrInsufficientData is returned when a training set is too small or a
	// split is missing one of the two classes.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrBundleNotFound is returned by bundle repositories for unknown IDs.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrAssessmentNotFound is returned by assessment repositories for unknown IDs.
	ErrAssessmentNotFound = errors.New("assessment not found")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every rule a record broke.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
