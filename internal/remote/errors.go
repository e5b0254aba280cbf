package remote

import (
	"errors"
	"fmt"

	"github.com/javiermolinar/weekplan/internal/api"
	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/task"
)

var (
	// ErrNotSignedIn is returned by task calls made without a session.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrOwnerMismatch is returned when a call names an owner other than the signed-in user.
	ErrOwnerMismatch = errors.New("owner is not the signed-in user")
)

// APIError is a non-success response from the backend.
// Err holds the matching domain error when the code is known.
type APIError struct {
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d (code %d): %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// domainError rebuilds the typed error behind an envelope code.
func domainError(env envelope) error {
	switch env.ErrorCode {
	case api.CodeValidation:
		var d api.ValidationDetail
		if err := decodeData(env.Data, &d); err != nil {
			return task.ErrValidation
		}
		return &task.ValidationError{Field: d.Field, Rule: d.Rule, Limit: d.Limit}
	case api.CodeInvalidPlacement:
		return &task.InvalidPlacementError{Reason: env.Message}
	case api.CodeNotFound:
		var d api.NotFoundDetail
		if err := decodeData(env.Data, &d); err != nil {
			return task.ErrNotFound
		}
		return &task.NotFoundError{ID: d.ID}
	case api.CodeInvalidEmail:
		return auth.ErrInvalidEmail
	case api.CodeWeakPassword:
		return auth.ErrWeakPassword
	case api.CodeEmailTaken:
		return auth.ErrEmailTaken
	case api.CodeInvalidCredentials:
		return auth.ErrInvalidCredentials
	case api.CodeUnauthorized:
		return auth.ErrSessionExpired
	default:
		return nil
	}
}
