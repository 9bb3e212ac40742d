package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// Memory is an in-process implementation of SessionStore and UserStore.
// Sessions are deep-copied on the way in and out so callers never share
// mutable state with the store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*types.InterviewSession
	users    map[uuid.UUID]*UserRecord
	emails   map[string]uuid.UUID
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[uuid.UUID]*types.InterviewSession),
		users:    make(map[uuid.UUID]*UserRecord),
		emails:   make(map[string]uuid.UUID),
	}
}

// Load returns a copy of the session with the given ID, or ErrNotFound.
func (m *Memory) Load(_ context.Context, id uuid.UUID) (*types.InterviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(session)
}

// Save persists a copy of the session, enforcing the version check.
func (m *Memory) Save(_ context.Context, session *types.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.sessions[session.ID]
	if exists {
		if current.Version != session.Version {
			return ErrConflict
		}
	} else if session.Version != 0 {
		return ErrConflict
	}

	stored, err := copySession(session)
	if err != nil {
		return err
	}
	stored.Version++
	m.sessions[session.ID] = stored
	session.Version = stored.Version
	return nil
}

// FindByOwner returns copies of all sessions owned by ownerID, newest
// first by start time.
func (m *Memory) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*types.InterviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.InterviewSession
	for _, session := range m.sessions {
		if session.OwnerID != ownerID {
			continue
		}
		copied, err := copySession(session)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// FindCompletedByOwner returns copies of completed sessions owned by
// ownerID, newest completion first.
func (m *Memory) FindCompletedByOwner(_ context.Context, ownerID uuid.UUID) ([]*types.InterviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.InterviewSession
	for _, session := range m.sessions {
		if session.OwnerID != ownerID || session.Status != types.StatusCompleted {
			continue
		}
		copied, err := copySession(session)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := completedAt(out[i]), completedAt(out[j])
		return ti.After(tj)
	})
	return out, nil
}

// CreateUser stores a new account, or returns ErrEmailTaken.
func (m *Memory) CreateUser(_ context.Context, name, email, passwordHash string) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(email)
	if _, taken := m.emails[key]; taken {
		return nil, ErrEmailTaken
	}

	user := types.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	m.users[user.ID] = &UserRecord{User: user, PasswordHash: passwordHash}
	m.emails[key] = user.ID
	return &user, nil
}

// GetUser returns the account with the given ID, or ErrNotFound.
func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := record.User
	return &user, nil
}

// GetUserByEmail returns the account and password hash for the email, or
// ErrNotFound.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	record := *m.users[id]
	return &record, nil
}

// copySession deep-copies a session through its JSON form, matching the
// shape the PostgreSQL store round-trips.
func copySession(session *types.InterviewSession) (*types.InterviewSession, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to copy session: %w", err)
	}
	var copied types.InterviewSession
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to copy session: %w", err)
	}
	return &copied, nil
}

func completedAt(session *types.InterviewSession) time.Time {
	if session.CompletedAt != nil {
		return *session.CompletedAt
	}
	return time.Time{}
}
