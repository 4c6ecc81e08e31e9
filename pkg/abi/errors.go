package abi

import (
	"errors"
	"fmt"
)

// Lookup errors indicate the table and its caller have gone out of sync.
var (
	ErrUnknownSyscall = errors.New("unknown syscall")
	ErrOutOfRange     = errors.New("syscall index out of range")
)

// Authoring errors reject a table before any code is generated.
var (
	ErrEmptyTable     = errors.New("syscall table is empty")
	ErrEmptyName      = errors.New("invalid syscall name")
	ErrDuplicateName  = errors.New("duplicate syscall name")
	ErrBreakingChange = errors.New("breaking ABI change")
)

// Kind classifies a validation failure.
type Kind int

const (
	KindEmptyTable Kind = iota + 1
	KindEmptyName
	KindDuplicateName
)

func (k Kind) String() string {
	switch k {
	case KindEmptyTable:
		return "EmptyTable"
	case KindEmptyName:
		return "EmptyName"
	case KindDuplicateName:
		return "DuplicateName"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindEmptyTable:
		return ErrEmptyTable
	case KindEmptyName:
		return ErrEmptyName
	case KindDuplicateName:
		return ErrDuplicateName
	default:
		return nil
	}
}

// ValidationError describes the first invariant violation found in a table.
type ValidationError struct {
	Kind Kind

	// Name is the offending syscall name. Empty for KindEmptyTable.
	Name string

	// Position is the index of the offending entry, or -1 for KindEmptyTable.
	Position int

	// FirstPosition is the earlier index holding the same name.
	// Only set for KindDuplicateName.
	FirstPosition int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindEmptyTable:
		return ErrEmptyTable.Error()
	case KindDuplicateName:
		return fmt.Sprintf("%s %q at positions %d and %d", ErrDuplicateName, e.Name, e.FirstPosition, e.Position)
	default:
		return fmt.Sprintf("%s %q at position %d", ErrEmptyName, e.Name, e.Position)
	}
}

// Unwrap lets errors.Is match the sentinel for the failure kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind.sentinel()
}
