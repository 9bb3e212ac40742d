// Package store provides persistence for interview sessions and candidate
// accounts, with an in-memory implementation for tests and local runs and a
// PostgreSQL implementation for deployments.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// Sentinel errors shared by all implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a concurrent-write race: the session version
	// on disk no longer matches the version the caller loaded.
	ErrConflict = errors.New("version conflict")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// SessionStore persists interview session aggregates. The aggregate
// (session plus embedded questions) is the unit of consistency: Load and
// Save move it whole, and Save enforces optimistic concurrency via the
// session's Version field.
type SessionStore interface {
	// Load returns the session with the given ID, or ErrNotFound.
	Load(ctx context.Context, id uuid.UUID) (*types.InterviewSession, error)
	// Save persists the session. The session's Version must equal the
	// stored version (0 for a new session); on mismatch Save returns
	// ErrConflict and writes nothing. On success the session's Version is
	// incremented.
	Save(ctx context.Context, session *types.InterviewSession) error
	// FindByOwner returns all sessions owned by ownerID, newest first.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.InterviewSession, error)
	// FindCompletedByOwner returns completed sessions owned by ownerID,
	// newest completion first.
	FindCompletedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.InterviewSession, error)
}

// UserRecord is a stored candidate account, including the password hash
// that never leaves the store/auth layers.
type UserRecord struct {
	User         types.User
	PasswordHash string
}

// UserStore persists candidate accounts.
type UserStore interface {
	// CreateUser stores a new account, or returns ErrEmailTaken.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error)
	// GetUser returns the account with the given ID, or ErrNotFound.
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	// GetUserByEmail returns the account and password hash for the email,
	// or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
}
