package domain

import "errors"

var ErrValidation = errors.New("validation failed")

// ValidationError marks input rejected before any state change.
type ValidationError struct {
	Err error
}

func NewValidationError(err error) ValidationError {
	return ValidationError{Err: err}
}

func (e ValidationError) Error() string {
	if e.Err == nil {
		return ErrValidation.Error()
	}
	return e.Err.Error()
}

func (e ValidationError) Unwrap() error { return e.Err }

func (e ValidationError) Is(target error) bool { return target == ErrValidation }
