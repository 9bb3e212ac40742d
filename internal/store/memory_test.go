package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/types"
)

func newSession(ownerID uuid.UUID, startedAt time.Time) *types.InterviewSession {
	return &types.InterviewSession{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		JobRole:    "Backend Engineer",
		Questions:  []types.Question{},
		Status:     types.StatusActive,
		Strengths:  []string{},
		Weaknesses: []string{},
		StartedAt:  startedAt,
	}
}

func TestMemoryLoadNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.Load(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySaveBumpsVersionAndRoundTrips(t *testing.T) {
	m := NewMemory()
	session := newSession(uuid.New(), time.Now().UTC())

	require.NoError(t, m.Save(context.Background(), session))
	assert.Equal(t, int64(1), session.Version)

	loaded, err := m.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, int64(1), loaded.Version)

	require.NoError(t, m.Save(context.Background(), loaded))
	assert.Equal(t, int64(2), loaded.Version)
}

func TestMemorySaveRejectsStaleVersion(t *testing.T) {
	m := NewMemory()
	session := newSession(uuid.New(), time.Now().UTC())
	require.NoError(t, m.Save(context.Background(), session))

	first, err := m.Load(context.Background(), session.ID)
	require.NoError(t, err)
	second, err := m.Load(context.Background(), session.ID)
	require.NoError(t, err)

	require.NoError(t, m.Save(context.Background(), first))

	err = m.Save(context.Background(), second)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemorySaveRejectsNonZeroVersionForNewSession(t *testing.T) {
	m := NewMemory()
	session := newSession(uuid.New(), time.Now().UTC())
	session.Version = 3

	err := m.Save(context.Background(), session)

	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryCopiesOnLoadAndSave(t *testing.T) {
	m := NewMemory()
	session := newSession(uuid.New(), time.Now().UTC())
	session.Questions = []types.Question{{ID: uuid.New(), Text: "original"}}
	require.NoError(t, m.Save(context.Background(), session))

	// Mutating the caller's copy must not leak into the store.
	session.Questions[0].Text = "mutated after save"

	loaded, err := m.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", loaded.Questions[0].Text)

	loaded.Questions[0].Text = "mutated after load"
	again, err := m.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Questions[0].Text)
}

func TestMemoryFindByOwnerNewestFirst(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()
	other := uuid.New()
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	older := newSession(owner, base)
	newer := newSession(owner, base.Add(time.Hour))
	foreign := newSession(other, base.Add(2*time.Hour))
	for _, s := range []*types.InterviewSession{older, newer, foreign} {
		require.NoError(t, m.Save(context.Background(), s))
	}

	found, err := m.FindByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, newer.ID, found[0].ID)
	assert.Equal(t, older.ID, found[1].ID)
}

func TestMemoryFindCompletedByOwner(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	active := newSession(owner, base)

	early := newSession(owner, base)
	earlyDone := base.Add(30 * time.Minute)
	early.Status = types.StatusCompleted
	early.CompletedAt = &earlyDone

	late := newSession(owner, base)
	lateDone := base.Add(2 * time.Hour)
	late.Status = types.StatusCompleted
	late.CompletedAt = &lateDone

	for _, s := range []*types.InterviewSession{active, early, late} {
		require.NoError(t, m.Save(context.Background(), s))
	}

	found, err := m.FindCompletedByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, late.ID, found[0].ID)
	assert.Equal(t, early.ID, found[1].ID)
}

func TestMemoryUserLifecycle(t *testing.T) {
	m := NewMemory()

	user, err := m.CreateUser(context.Background(), "Ada", "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)

	_, err = m.CreateUser(context.Background(), "Imposter", "ADA@example.com", "hash-2")
	assert.ErrorIs(t, err, ErrEmailTaken, "email uniqueness is case insensitive")

	byID, err := m.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)

	record, err := m.GetUserByEmail(context.Background(), "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, record.User.ID)
	assert.Equal(t, "hash-1", record.PasswordHash)

	_, err = m.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
