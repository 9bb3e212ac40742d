package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/interview-coach/internal/interview"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// HTTPStatus maps engine and auth errors to HTTP status codes. Unknown
// errors map to 500.
func HTTPStatus(err error) int {
	var (
		validationErr *interview.ValidationError
		notFoundErr   *interview.NotFoundError
		authErr       *interview.AuthorizationError
		capacityErr   *interview.CapacityError
		stateErr      *interview.InvalidStateError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &authErr):
		return http.StatusForbidden
	case errors.As(err, &capacityErr):
		return http.StatusConflict
	case errors.As(err, &stateErr):
		return http.StatusConflict
	}

	var emailErr *ErrEmailAlreadyExists
	var credsErr *ErrInvalidCredentials
	switch {
	case errors.As(err, &emailErr):
		return http.StatusConflict
	case errors.As(err, &credsErr):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}

// publicMessage hides internals for 5xx responses; 4xx errors are safe to
// echo since the engine's error strings never leak beyond their own
// invariant (AuthorizationError in particular carries no detail).
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
