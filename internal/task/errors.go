package task

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("task not found")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrSlotFull         = errors.New("slot is full")
)

// Slot id errors.
var (
	ErrInvalidSlot   = errors.New("invalid slot id")
	ErrDropCancelled = errors.New("drop cancelled")
)

// Validation rules reported by ValidationError.
const (
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
)

// ValidationError reports a field that failed its rule.
type ValidationError struct {
	Field string
	Rule  string
	Limit int
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case RuleRequired:
		return fmt.Sprintf("%s is required", e.Field)
	case RuleMinLength:
		return fmt.Sprintf("%s must be at least %d characters", e.Field, e.Limit)
	case RuleMaxLength:
		return fmt.Sprintf("%s must be at most %d characters", e.Field, e.Limit)
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an operation on a missing task id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("task %d not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidPlacementError reports a destination outside the grid.
type InvalidPlacementError struct {
	Destination string
	Reason      string
}

func (e *InvalidPlacementError) Error() string {
	if e.Destination == "" {
		return fmt.Sprintf("invalid placement: %s", e.Reason)
	}
	return fmt.Sprintf("invalid placement %s: %s", e.Destination, e.Reason)
}

func (e *InvalidPlacementError) Is(target error) bool { return target == ErrInvalidPlacement }

// SlotFullError reports a (day, period) pair that already holds MaxPositionsPerSlot tasks.
type SlotFullError struct {
	Day    Day
	Period Period
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("%s %s already has %d tasks", e.Day.Title(), e.Period, MaxPositionsPerSlot)
}

func (e *SlotFullError) Is(target error) bool { return target == ErrSlotFull }
