package appointments

import (
	"errors"

	"agecare/appointments/internal/store"
)

const (
	EntityAppointment = "appointment"
	EntityResident    = "resident"
	EntityDoctor      = "doctor"
)

// ValidationError reports a request that breaks a static business rule.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// NotFoundError reports a referenced resident, doctor or appointment that does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func notFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ConflictError reports that the requested (date, time, doctor) slot is occupied.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string {
	return e.msg
}

func conflictError() error {
	return &ConflictError{msg: "slot taken"}
}

// PersistenceError wraps an unexpected store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failure during " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// persistenceError keeps the unique-constraint and vanished-row cases in their own classes.
func persistenceError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return conflictError()
	case errors.Is(err, store.ErrNotFound):
		return notFoundError(EntityAppointment)
	default:
		return &PersistenceError{Op: op, Err: err}
	}
}
