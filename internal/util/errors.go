package util

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. All of these are terminal for the call that raised
// them; nothing here is retried. Each carries enough context for the caller
// to render an actionable message.

type NotFoundError struct {
	Entity string
	ID     uint
	Extra  string
}

func (e *NotFoundError) Error() string {
	if e.Extra != "" {
		return fmt.Sprintf("%s %d: %s not found", e.Entity, e.ID, e.Extra)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NewNotFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateError reports an operation invalid for the entity's current status.
type StateError struct {
	Entity string
	ID     uint
	Status string
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in status %s", e.Op, e.Entity, e.ID, e.Status)
}

func NewState(entity string, id uint, status, op string) error {
	return &StateError{Entity: entity, ID: id, Status: status, Op: op}
}

// CapacityError reports an exhausted attempt quota.
type CapacityError struct {
	Msg string
}

func (e *CapacityError) Error() string {
	return e.Msg
}

func NewCapacity(format string, args ...interface{}) error {
	return &CapacityError{Msg: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
