package interview

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

func newTestEngine(client llm.Client, sessions store.SessionStore) *Engine {
	log := zap.NewNop()
	generator := NewGenerator(client, rand.New(rand.NewSource(1)), log)
	evaluator := NewEvaluator(client, log)
	return NewEngine(sessions, generator, evaluator, log)
}

func TestStartRequiresOwner(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())

	_, err := e.Start(context.Background(), uuid.Nil, "SRE", "some resume")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "owner_id", verr.Field)
}

func TestStartDefaultsJobRoleAndAsksFirstQuestion(t *testing.T) {
	client := &fakeClient{responses: []string{"What is your experience with distributed systems?"}}
	e := newTestEngine(client, store.NewMemory())

	session, err := e.Start(context.Background(), uuid.New(), "  ", "I build services in Go and Python.")

	require.NoError(t, err)
	assert.Equal(t, DefaultJobRole, session.JobRole)
	assert.Equal(t, types.StatusActive, session.Status)
	require.Len(t, session.Questions, 1)
	assert.Equal(t, "What is your experience with distributed systems?", session.Questions[0].Text)
	assert.NotEqual(t, uuid.Nil, session.Questions[0].ID)
	assert.Empty(t, session.Questions[0].Answer)
	assert.Nil(t, session.Questions[0].AnsweredAt)
}

func TestStartWithEmptyResumeAndDeadBackend(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())

	session, err := e.Start(context.Background(), uuid.New(), "", "")

	require.NoError(t, err)
	require.Len(t, session.Questions, 1)
	// No skills detected, the templated question falls back to the
	// generic subject.
	assert.Contains(t, session.Questions[0].Text, "programming")
	assert.Empty(t, session.ResumeSummary)
}

func TestNextQuestionAppendsUpToCapacity(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()

	session, err := e.Start(context.Background(), owner, "SRE", "")
	require.NoError(t, err)

	for i := 2; i <= types.MaxQuestions; i++ {
		q, err := e.NextQuestion(context.Background(), session.ID, owner)
		require.NoError(t, err)
		assert.NotEmpty(t, q.Text)
	}

	got, err := e.Get(context.Background(), session.ID, owner)
	require.NoError(t, err)
	assert.Len(t, got.Questions, types.MaxQuestions)

	_, err = e.NextQuestion(context.Background(), session.ID, owner)
	var cerr *CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, types.MaxQuestions, cerr.Limit)

	// The failed attempt must not have grown the session.
	got, err = e.Get(context.Background(), session.ID, owner)
	require.NoError(t, err)
	assert.Len(t, got.Questions, types.MaxQuestions)
}

func TestSubmitAnswerValidation(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)
	questionID := session.Questions[0].ID

	_, err = e.SubmitAnswer(context.Background(), session.ID, owner, questionID, "   ", 10)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "answer", verr.Field)

	_, err = e.SubmitAnswer(context.Background(), session.ID, owner, questionID, "fine", -1)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "time_taken_seconds", verr.Field)
}

func TestSubmitAnswerScoresAndRecomputes(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	second, err := e.NextQuestion(context.Background(), session.ID, owner)
	require.NoError(t, err)

	// Dead backend: the three-word answer takes the length heuristic.
	q, err := e.SubmitAnswer(context.Background(), session.ID, owner, session.Questions[0].ID, "I like Go", 42)
	require.NoError(t, err)
	assert.Equal(t, 5.0, q.Score)
	assert.Equal(t, "Answer received. Keep practicing!", q.Feedback)
	assert.Equal(t, 42, q.TimeTakenSeconds)
	require.NotNil(t, q.AnsweredAt)

	got, err := e.Get(context.Background(), session.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.TotalScore)
	assert.Equal(t, 2.5, got.AverageScore, "unanswered question contributes zero")
	assert.Nil(t, got.QuestionByID(second.ID).AnsweredAt)
}

func TestSubmitAnswerOverwritesPreviousSubmission(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)
	questionID := session.Questions[0].ID

	_, err = e.SubmitAnswer(context.Background(), session.ID, owner, questionID, "short answer", 10)
	require.NoError(t, err)

	long := strings.TrimSpace(strings.Repeat("word ", 200))
	q, err := e.SubmitAnswer(context.Background(), session.ID, owner, questionID, long, 90)
	require.NoError(t, err)
	assert.Equal(t, 10.0, q.Score)
	assert.Equal(t, long, q.Answer)
	assert.Equal(t, 90, q.TimeTakenSeconds)

	got, err := e.Get(context.Background(), session.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.TotalScore)
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	_, err = e.SubmitAnswer(context.Background(), session.ID, owner, uuid.New(), "answer", 5)

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "question", nerr.Kind)
}

func TestOwnershipIsEnforcedOnEveryOperation(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	stranger := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	var aerr *AuthorizationError

	_, err = e.Get(context.Background(), session.ID, stranger)
	assert.ErrorAs(t, err, &aerr)

	_, err = e.NextQuestion(context.Background(), session.ID, stranger)
	assert.ErrorAs(t, err, &aerr)

	_, err = e.SubmitAnswer(context.Background(), session.ID, stranger, session.Questions[0].ID, "answer", 5)
	assert.ErrorAs(t, err, &aerr)

	_, err = e.End(context.Background(), session.ID, stranger)
	assert.ErrorAs(t, err, &aerr)

	_, err = e.Cancel(context.Background(), session.ID, stranger)
	assert.ErrorAs(t, err, &aerr)

	// Ownership still applies after completion.
	_, err = e.End(context.Background(), session.ID, owner)
	require.NoError(t, err)
	_, err = e.Get(context.Background(), session.ID, stranger)
	assert.ErrorAs(t, err, &aerr)
}

func TestEndSummarizesByAverageScore(t *testing.T) {
	t.Run("high average", func(t *testing.T) {
		e := newTestEngine(llm.Unavailable(), store.NewMemory())
		owner := uuid.New()
		session, err := e.Start(context.Background(), owner, "", "")
		require.NoError(t, err)

		long := strings.TrimSpace(strings.Repeat("word ", 200))
		_, err = e.SubmitAnswer(context.Background(), session.ID, owner, session.Questions[0].ID, long, 60)
		require.NoError(t, err)

		ended, err := e.End(context.Background(), session.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, types.StatusCompleted, ended.Status)
		require.NotNil(t, ended.CompletedAt)
		assert.Contains(t, ended.Strengths, "Good technical knowledge")
		assert.Contains(t, ended.Weaknesses, "Could provide more detailed examples")
	})

	t.Run("low average", func(t *testing.T) {
		e := newTestEngine(llm.Unavailable(), store.NewMemory())
		owner := uuid.New()
		session, err := e.Start(context.Background(), owner, "", "")
		require.NoError(t, err)

		_, err = e.SubmitAnswer(context.Background(), session.ID, owner, session.Questions[0].ID, "short", 5)
		require.NoError(t, err)

		ended, err := e.End(context.Background(), session.ID, owner)
		require.NoError(t, err)
		assert.Contains(t, ended.Strengths, "Willingness to learn")
		assert.Contains(t, ended.Weaknesses, "Need more practice with coding concepts")
		assert.NotEmpty(t, ended.Weaknesses)
	})
}

func TestEndFixesDuration(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return start }

	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	e.now = func() time.Time { return start.Add(12*time.Minute + 40*time.Second) }
	ended, err := e.End(context.Background(), session.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, 13, ended.DurationMinutes)
	assert.Equal(t, start.Add(12*time.Minute+40*time.Second), *ended.CompletedAt)
}

func TestMutationsRejectNonActiveSessions(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)
	questionID := session.Questions[0].ID

	_, err = e.End(context.Background(), session.ID, owner)
	require.NoError(t, err)

	var serr *InvalidStateError

	_, err = e.NextQuestion(context.Background(), session.ID, owner)
	assert.ErrorAs(t, err, &serr)

	_, err = e.SubmitAnswer(context.Background(), session.ID, owner, questionID, "late answer", 5)
	assert.ErrorAs(t, err, &serr)

	_, err = e.End(context.Background(), session.ID, owner)
	assert.ErrorAs(t, err, &serr)

	_, err = e.Cancel(context.Background(), session.ID, owner)
	assert.ErrorAs(t, err, &serr)

	// Reads still work.
	got, err := e.Get(context.Background(), session.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
}

func TestCancelSkipsScoring(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	cancelled, err := e.Cancel(context.Background(), session.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, types.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)
	assert.Empty(t, cancelled.Strengths)
	assert.Empty(t, cancelled.Weaknesses)
}

func TestHistoryAndCompletedAreScopedToRequester(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	alice := uuid.New()
	bob := uuid.New()

	first, err := e.Start(context.Background(), alice, "SRE", "")
	require.NoError(t, err)
	_, err = e.Start(context.Background(), alice, "Backend Engineer", "")
	require.NoError(t, err)
	_, err = e.Start(context.Background(), bob, "Data Engineer", "")
	require.NoError(t, err)

	_, err = e.End(context.Background(), first.ID, alice)
	require.NoError(t, err)

	history, err := e.History(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	completed, err := e.Completed(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, first.ID, completed[0].ID)
}

// conflictingStore forces ErrConflict on the first saves of each session
// mutation, to exercise the engine's retry.
type conflictingStore struct {
	store.SessionStore
	mu        sync.Mutex
	conflicts int
}

func (c *conflictingStore) Save(ctx context.Context, session *types.InterviewSession) error {
	c.mu.Lock()
	if c.conflicts > 0 {
		c.conflicts--
		c.mu.Unlock()
		return store.ErrConflict
	}
	c.mu.Unlock()
	return c.SessionStore.Save(ctx, session)
}

func TestUpdateRetriesOneConflict(t *testing.T) {
	mem := store.NewMemory()
	e := newTestEngine(llm.Unavailable(), mem)
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	wrapped := &conflictingStore{SessionStore: mem, conflicts: 1}
	e.sessions = wrapped

	q, err := e.NextQuestion(context.Background(), session.ID, owner)
	require.NoError(t, err)
	assert.NotEmpty(t, q.Text)
}

func TestUpdateGivesUpAfterSecondConflict(t *testing.T) {
	mem := store.NewMemory()
	e := newTestEngine(llm.Unavailable(), mem)
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	e.sessions = &conflictingStore{SessionStore: mem, conflicts: 2}

	_, err = e.NextQuestion(context.Background(), session.ID, owner)
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestConcurrentSubmissionsSerialize(t *testing.T) {
	e := newTestEngine(llm.Unavailable(), store.NewMemory())
	owner := uuid.New()
	session, err := e.Start(context.Background(), owner, "", "")
	require.NoError(t, err)

	ids := []uuid.UUID{session.Questions[0].ID}
	for i := 0; i < 4; i++ {
		q, err := e.NextQuestion(context.Background(), session.ID, owner)
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = e.SubmitAnswer(context.Background(), session.ID, owner, id, "a concurrent answer", 5)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := e.Get(context.Background(), session.ID, owner)
	require.NoError(t, err)
	for _, q := range got.Questions {
		assert.NotNil(t, q.AnsweredAt)
		assert.Equal(t, 5.0, q.Score)
	}
	assert.Equal(t, 25.0, got.TotalScore)
}

func TestStartFailsWhenStoreRejectsSave(t *testing.T) {
	mem := store.NewMemory()
	e := newTestEngine(llm.Unavailable(), mem)

	boom := &failingStore{SessionStore: mem, err: errors.New("disk full")}
	e.sessions = boom

	_, err := e.Start(context.Background(), uuid.New(), "", "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
}

type failingStore struct {
	store.SessionStore
	err error
}

func (f *failingStore) Save(context.Context, *types.InterviewSession) error {
	return f.err
}
