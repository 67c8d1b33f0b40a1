package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEggNotFound is returned when an egg does not exist.
type ErrEggNotFound struct {
	id int
}

func (e ErrEggNotFound) Error() string {
	return fmt.Sprintf("egg %d not found", e.id)
}

// ErrNestNotFound is returned when a nest does not exist.
type ErrNestNotFound struct {
	id int
}

func (e ErrNestNotFound) Error() string {
	return fmt.Sprintf("nest %d not found", e.id)
}

// ErrVariableNotFound is returned when a variable does not belong to the egg
// it was addressed through.
type ErrVariableNotFound struct {
	egg int
	id  int
}

func (e ErrVariableNotFound) Error() string {
	return fmt.Sprintf("variable %d not found on egg %d", e.id, e.egg)
}

// ErrReservedVariable is returned when a variable uses one of the reserved
// environment names.
type ErrReservedVariable struct {
	name string
}

func (e ErrReservedVariable) Error() string {
	return fmt.Sprintf("environment variable %s is reserved", e.name)
}

// ErrDuplicateVariable is returned when two variables of an egg share an
// environment name.
type ErrDuplicateVariable struct {
	name string
}

func (e ErrDuplicateVariable) Error() string {
	return fmt.Sprintf("environment variable %s is already defined on this egg", e.name)
}

// IsNotFound reports whether err is one of the not found errors of this
// package.
func IsNotFound(err error) bool {
	switch errors.Cause(err).(type) {
	case ErrEggNotFound, ErrNestNotFound, ErrVariableNotFound:
		return true
	}
	return false
}

// IsConflict reports whether err rejects a variable change.
func IsConflict(err error) bool {
	switch errors.Cause(err).(type) {
	case ErrReservedVariable, ErrDuplicateVariable:
		return true
	}
	return false
}
