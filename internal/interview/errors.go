// Package interview implements the interview orchestration engine: question
// generation, answer evaluation and the session state machine that binds
// them. AI-backend failures never escape this package; every AI-dependent
// step has a deterministic local fallback.
package interview

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError indicates malformed or missing required input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NotFoundError indicates an unknown session or question.
type NotFoundError struct {
	Kind string // "session" or "question"
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// AuthorizationError indicates the requester does not own the session.
// It deliberately carries no detail beyond "not authorized".
type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return "not authorized"
}

// CapacityError indicates the per-session question ceiling was reached.
type CapacityError struct {
	SessionID uuid.UUID
	Limit     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("session %s reached the question limit of %d", e.SessionID, e.Limit)
}

// InvalidStateError indicates an operation that is invalid for the current
// session status, or a storage conflict that survived the retry.
type InvalidStateError struct {
	Message string
	Cause   error
}

func (e *InvalidStateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid state: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid state: %s", e.Message)
}

func (e *InvalidStateError) Unwrap() error {
	return e.Cause
}
