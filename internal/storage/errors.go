package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOwner is returned when remote mode is used without a signed-in owner.
	ErrNoOwner = errors.New("remote storage requires an owner id")

	// ErrNoBackend is returned when remote mode is requested but no backend is configured.
	ErrNoBackend = errors.New("no remote backend configured")
)

// PersistenceError wraps a failed read or write against the active storage mode.
type PersistenceError struct {
	Op   string
	Mode Mode
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (%s storage): %v", e.Op, e.Mode, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op string, mode Mode, err error) error {
	if err == nil {
		return nil
	}
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &PersistenceError{Op: op, Mode: mode, Err: err}
}
