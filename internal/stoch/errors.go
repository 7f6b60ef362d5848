package stoch

import (
	"errors"
	"fmt"
)

// Domain errors for simulation and analysis operations.
var (
	// ErrInvalidDimension indicates drift, covariance and initial values disagree in size.
	ErrInvalidDimension = errors.New("stoch: invalid dimension")

	// ErrSingularCovariance indicates the scaled covariance could not be factored.
	ErrSingularCovariance = errors.New("stoch: singular covariance")

	// ErrInvalidParameter indicates a run parameter outside its valid range.
	ErrInvalidParameter = errors.New("stoch: invalid parameter")

	// ErrDomain indicates an analytical function evaluated outside its support.
	ErrDomain = errors.New("stoch: domain error")
)

// InputError names the input that failed validation.
type InputError struct {
	Field string
	Err   error
	Msg   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Msg)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErr(field string, err error, format string, args ...any) error {
	return &InputError{Field: field, Err: err, Msg: fmt.Sprintf(format, args...)}
}
