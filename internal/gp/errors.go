package gp

import (
	"errors"
	"fmt"
)

// Domain errors for sensitivity computations.
var (
	// ErrEmptyDomain indicates that fixing input ranges left no free dimension.
	ErrEmptyDomain = errors.New("gp: no free variables in domain")

	// ErrInvalidOption indicates an unrecognised option or malformed request.
	ErrInvalidOption = errors.New("gp: invalid option")

	// ErrNumericalInstability indicates a covariance matrix that is not
	// symmetric positive definite.
	ErrNumericalInstability = errors.New("gp: covariance not positive definite")

	// ErrDimensionMismatch indicates inconsistent shapes between samples,
	// design, ranges or categorical flags.
	ErrDimensionMismatch = errors.New("gp: dimension mismatch")
)

// Mismatch returns an ErrDimensionMismatch carrying a description.
func Mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDimensionMismatch, fmt.Sprintf(format, args...))
}

// ComponentError wraps a failure with the basis component and posterior draw
// that produced it.
type ComponentError struct {
	Component int
	Draw      int
	Wrapped   error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %d, draw %d: %v", e.Component, e.Draw, e.Wrapped)
}

func (e *ComponentError) Unwrap() error {
	return e.Wrapped
}
