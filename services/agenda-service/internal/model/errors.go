package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrConfigurationMissing = errors.New("working hours not configured")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBookingConflict      = errors.New("slot already booked")
	ErrInvalidInput         = errors.New("invalid input")
)

// Rejections are caused by the request rather than a fault of the service.
var Rejections = []error{ErrNotFound, ErrInvalidInput, ErrBookingConflict, ErrConfigurationMissing, ErrUnauthorized}

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err unless it already is a domain error.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{ErrNotFound, ErrBookingConflict, ErrInvalidInput, ErrInvalidTransition, ErrConfigurationMissing, ErrUnauthorized} {
		if errors.Is(err, domain) {
			return err
		}
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func NotFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}

func InvalidInput(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidInput)
}
