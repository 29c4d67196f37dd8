package rigid

import (
	"errors"
	"fmt"
)

// Domain errors for integrator operations.
var (
	// ErrInvalidThrow indicates a throw starting at or below ground contact height.
	ErrInvalidThrow = errors.New("rigid: invalid throw (start height at or below ground contact)")

	// ErrInvalidTimestep indicates a non-positive or non-finite dt.
	ErrInvalidTimestep = errors.New("rigid: invalid timestep (dt must be positive and finite)")

	// ErrInvalidBody indicates a non-positive or non-finite mass or size.
	ErrInvalidBody = errors.New("rigid: invalid body (mass and size must be positive)")

	// ErrParameterBounds indicates a physics parameter outside its valid range.
	ErrParameterBounds = errors.New("rigid: parameter out of valid bounds")
)

// ThrowError reports a rejected throw. Field names the non-finite input
// ("position", "velocity" or "spin"); it is empty when the start height is
// too low.
type ThrowError struct {
	Height float64
	Min    float64
	Field  string
}

func (e *ThrowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s is not finite", ErrInvalidThrow, e.Field)
	}
	return fmt.Sprintf("%s: y=%.4f, need > %.4f", ErrInvalidThrow, e.Height, e.Min)
}

func (e *ThrowError) Unwrap() error {
	return ErrInvalidThrow
}

// TimestepError reports a rejected step.
type TimestepError struct {
	Dt float64
}

func (e *TimestepError) Error() string {
	return fmt.Sprintf("%s: dt=%g", ErrInvalidTimestep, e.Dt)
}

func (e *TimestepError) Unwrap() error {
	return ErrInvalidTimestep
}

// ParamError names the offending parameter.
type ParamError struct {
	Name  string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%g", ErrParameterBounds, e.Name, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}
