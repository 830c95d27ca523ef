package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an error surfaced at the host-command boundary.
type ErrorKind string

const (
	ErrNoRack           ErrorKind = "NoRack"
	ErrNotFound         ErrorKind = "NotFound"
	ErrParse            ErrorKind = "Parse"
	ErrIO               ErrorKind = "Io"
	ErrValidationFailed ErrorKind = "ValidationFailed"
	ErrCycleDetected    ErrorKind = "CycleDetected"
	ErrUnknown          ErrorKind = "Unknown"
)

// CommandError is the error type returned across the host-command
// boundary: a kind plus a string describing the offending parameter.
type CommandError struct {
	Kind   ErrorKind
	Detail string

	// NotFoundKind/NotFoundID are only populated when Kind == ErrNotFound.
	NotFoundKind string
	NotFoundID   string

	// ValidationItems are only populated when Kind == ErrValidationFailed.
	ValidationItems []string

	// CycleIDs are only populated when Kind == ErrCycleDetected.
	CycleIDs []string
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case ErrNotFound:
		return fmt.Sprintf("not found: %s %q", e.NotFoundKind, e.NotFoundID)
	case ErrValidationFailed:
		return fmt.Sprintf("validation failed: %v", e.ValidationItems)
	case ErrCycleDetected:
		return fmt.Sprintf("cycle detected: %v", e.CycleIDs)
	default:
		if e.Detail == "" {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

func NewNoRack() error { return &CommandError{Kind: ErrNoRack} }

func NewNotFound(kind, id string) error {
	return &CommandError{Kind: ErrNotFound, NotFoundKind: kind, NotFoundID: id}
}

func NewParse(detail string) error { return &CommandError{Kind: ErrParse, Detail: detail} }

func NewIO(detail string) error { return &CommandError{Kind: ErrIO, Detail: detail} }

func NewValidationFailed(items []string) error {
	return &CommandError{Kind: ErrValidationFailed, ValidationItems: items}
}

func NewCycleDetected(cycleIDs []string) error {
	return &CommandError{Kind: ErrCycleDetected, CycleIDs: cycleIDs}
}

func NewUnknown(command string) error {
	return &CommandError{Kind: ErrUnknown, Detail: command}
}

// KindOf extracts the ErrorKind from err if it is (or wraps) a *CommandError.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
