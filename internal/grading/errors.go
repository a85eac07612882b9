package grading

import (
	"errors"
	"fmt"
)

// Error kinds reported by the gradebook core. None of them are transient.
var (
	ErrOutOfRange                 = errors.New("grade value out of range")
	ErrNotEnrolled                = errors.New("student is not enrolled in subject")
	ErrConfigurationLimitExceeded = errors.New("activity configuration exceeds zone ceiling")
	ErrInvalidTransition          = errors.New("invalid change request")
	ErrExceedsCeiling             = errors.New("requested value exceeds activity ceiling")
	ErrNoOpChange                 = errors.New("requested value equals current value")
	ErrAlreadyProcessed           = errors.New("change request already processed")
	ErrNotFound                   = errors.New("record not found")
	ErrGradeAlreadyRecorded       = errors.New("grade already recorded")
	ErrForbidden                  = errors.New("operation not permitted")
	ErrTooManyActivities          = errors.New("too many activities in one unit")
	ErrDuplicateActivity          = errors.New("activity listed more than once")
)

// LimitError reports a value rejected against a numeric bound.
type LimitError struct {
	Kind  error
	Value float64
	Limit float64
}

func (e *LimitError) Error() string {
	if e.Value < 0 {
		return fmt.Sprintf("%s: %.2f is negative", e.Kind, e.Value)
	}
	return fmt.Sprintf("%s: %.2f exceeds %.2f", e.Kind, e.Value, e.Limit)
}

// Unwrap exposes the error kind to errors.Is.
func (e *LimitError) Unwrap() error {
	return e.Kind
}

// NotFoundError reports an unknown reference.
type NotFoundError struct {
	Entity string
	ID     uint
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Unwrap exposes ErrNotFound to errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound builds a NotFoundError for an id reference.
func NotFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}
