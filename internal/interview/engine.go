package interview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/resume"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

// DefaultJobRole is used when a session is started without a target role.
const DefaultJobRole = "Software Developer"

// averageScoreThreshold splits the end-of-interview summary into the
// strong-performance and needs-practice feedback pairs.
const averageScoreThreshold = 7.0

// Engine is the session state machine. It exclusively owns InterviewSession
// mutation: the generator, evaluator and analyzer are pure collaborators
// that receive inputs and return outputs. Operations on the same session
// are serialized by a per-session lock held across the load-mutate-save
// span; operations on different sessions run fully in parallel.
type Engine struct {
	sessions  store.SessionStore
	generator *Generator
	evaluator *Evaluator
	log       *zap.Logger
	locks     *sessionLocks
	now       func() time.Time
}

// NewEngine wires the state machine to its collaborators.
func NewEngine(sessions store.SessionStore, generator *Generator, evaluator *Evaluator, log *zap.Logger) *Engine {
	return &Engine{
		sessions:  sessions,
		generator: generator,
		evaluator: evaluator,
		log:       log,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

// Start creates a session for ownerID: analyzes the résumé text, asks the
// first question and persists the new aggregate. An absent owner fails
// with ValidationError. Empty résumé text is valid and yields an empty
// profile, which routes question generation to the skill-templated
// fallback vocabulary.
func (e *Engine) Start(ctx context.Context, ownerID uuid.UUID, jobRole, resumeText string) (*types.InterviewSession, error) {
	if ownerID == uuid.Nil {
		return nil, &ValidationError{Field: "owner_id", Message: "owner is required"}
	}
	if strings.TrimSpace(jobRole) == "" {
		jobRole = DefaultJobRole
	}

	profile := resume.Analyze(resumeText)
	draft := e.generator.Next(ctx, profile, jobRole, nil)
	now := e.now().UTC()

	session := &types.InterviewSession{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		JobRole:       jobRole,
		ResumeSummary: profile.Summary,
		Questions:     []types.Question{newQuestion(draft, now)},
		Status:        types.StatusActive,
		Strengths:     []string{},
		Weaknesses:    []string{},
		StartedAt:     now,
	}

	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	e.log.Info("interview session started",
		zap.String("session_id", session.ID.String()),
		zap.String("job_role", jobRole),
		zap.Int("detected_skills", len(profile.Skills)))
	return session, nil
}

// NextQuestion generates and appends one question to an active session.
// The 11th attempt fails with CapacityError.
func (e *Engine) NextQuestion(ctx context.Context, sessionID, requesterID uuid.UUID) (*types.Question, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	var question *types.Question
	_, err := e.update(ctx, sessionID, requesterID, func(session *types.InterviewSession) error {
		if session.Status != types.StatusActive {
			return &InvalidStateError{Message: fmt.Sprintf("session is %s", session.Status)}
		}
		if len(session.Questions) >= types.MaxQuestions {
			return &CapacityError{SessionID: sessionID, Limit: types.MaxQuestions}
		}

		prior := make([]string, 0, len(session.Questions))
		for i := range session.Questions {
			prior = append(prior, session.Questions[i].Text)
		}

		draft := e.generator.Next(ctx, profileFromSummary(session.ResumeSummary), session.JobRole, prior)
		session.Questions = append(session.Questions, newQuestion(draft, e.now().UTC()))
		question = &session.Questions[len(session.Questions)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// SubmitAnswer records and scores the answer to one question, then
// recomputes the session totals. Re-submitting the same question fully
// overwrites the previous answer, score and feedback.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, requesterID, questionID uuid.UUID, answerText string, timeTakenSeconds int) (*types.Question, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, &ValidationError{Field: "answer", Message: "answer must not be empty"}
	}
	if timeTakenSeconds < 0 {
		return nil, &ValidationError{Field: "time_taken_seconds", Message: "must be non-negative"}
	}

	release := e.locks.acquire(sessionID)
	defer release()

	var question *types.Question
	_, err := e.update(ctx, sessionID, requesterID, func(session *types.InterviewSession) error {
		if session.Status != types.StatusActive {
			return &InvalidStateError{Message: fmt.Sprintf("session is %s", session.Status)}
		}

		q := session.QuestionByID(questionID)
		if q == nil {
			return &NotFoundError{Kind: "question", ID: questionID}
		}

		eval := e.evaluator.Evaluate(ctx, q.Text, answerText, session.ResumeSummary)
		answeredAt := e.now().UTC()

		q.Answer = answerText
		q.TimeTakenSeconds = timeTakenSeconds
		q.AnsweredAt = &answeredAt
		q.Score = eval.Score
		q.Feedback = eval.Feedback
		q.Strengths = eval.Strengths
		q.Improvements = eval.Improvements

		session.RecomputeScores()
		question = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// End transitions an active session to completed, fixes its duration and
// appends the coarse strength/weakness summary. Ending a non-active
// session fails with InvalidStateError.
func (e *Engine) End(ctx context.Context, sessionID, requesterID uuid.UUID) (*types.InterviewSession, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	return e.update(ctx, sessionID, requesterID, func(session *types.InterviewSession) error {
		if session.Status != types.StatusActive {
			return &InvalidStateError{Message: fmt.Sprintf("session is %s", session.Status)}
		}

		completedAt := e.now().UTC()
		session.Status = types.StatusCompleted
		session.CompletedAt = &completedAt
		session.DurationMinutes = int(math.Round(completedAt.Sub(session.StartedAt).Minutes()))

		if session.AverageScore >= averageScoreThreshold {
			session.Strengths = append(session.Strengths, "Good technical knowledge", "Clear communication")
			session.Weaknesses = append(session.Weaknesses, "Could provide more detailed examples")
		} else {
			session.Strengths = append(session.Strengths, "Willingness to learn")
			session.Weaknesses = append(session.Weaknesses, "Need more practice with coding concepts", "Improve explanation structure")
		}
		return nil
	})
}

// Cancel transitions an active session to cancelled without scoring.
func (e *Engine) Cancel(ctx context.Context, sessionID, requesterID uuid.UUID) (*types.InterviewSession, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	return e.update(ctx, sessionID, requesterID, func(session *types.InterviewSession) error {
		if session.Status != types.StatusActive {
			return &InvalidStateError{Message: fmt.Sprintf("session is %s", session.Status)}
		}

		completedAt := e.now().UTC()
		session.Status = types.StatusCancelled
		session.CompletedAt = &completedAt
		session.DurationMinutes = int(math.Round(completedAt.Sub(session.StartedAt).Minutes()))
		return nil
	})
}

// Get returns the session, owner-only.
func (e *Engine) Get(ctx context.Context, sessionID, requesterID uuid.UUID) (*types.InterviewSession, error) {
	session, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "session", ID: sessionID}
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.OwnerID != requesterID {
		return nil, &AuthorizationError{}
	}
	return session, nil
}

// History returns all of the requester's sessions, newest first.
func (e *Engine) History(ctx context.Context, requesterID uuid.UUID) ([]*types.InterviewSession, error) {
	sessions, err := e.sessions.FindByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Completed returns the requester's completed sessions, newest completion
// first, for analytics.
func (e *Engine) Completed(ctx context.Context, requesterID uuid.UUID) ([]*types.InterviewSession, error) {
	sessions, err := e.sessions.FindCompletedByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}
	return sessions, nil
}

// update runs one load-mutate-save cycle with authorization enforced
// before any mutation. A save Conflict gets exactly one retry (reload and
// reapply); a second conflict surfaces as InvalidStateError per the
// storage contract.
func (e *Engine) update(ctx context.Context, sessionID, requesterID uuid.UUID, mutate func(*types.InterviewSession) error) (*types.InterviewSession, error) {
	const attempts = 2

	for attempt := 1; ; attempt++ {
		session, err := e.sessions.Load(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &NotFoundError{Kind: "session", ID: sessionID}
			}
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if session.OwnerID != requesterID {
			return nil, &AuthorizationError{}
		}

		if err := mutate(session); err != nil {
			return nil, err
		}

		err = e.sessions.Save(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		if attempt >= attempts {
			return nil, &InvalidStateError{Message: "session was modified concurrently", Cause: err}
		}

		e.log.Warn("session save conflict, retrying once",
			zap.String("session_id", sessionID.String()))
	}
}

// profileFromSummary reconstructs the generation context from the stored
// summary: the summary embeds the detected skill names, so the fallback
// vocabulary intersection still works on follow-up questions.
func profileFromSummary(summary string) *types.ResumeProfile {
	return &types.ResumeProfile{
		Skills:  resume.SkillsIn(summary),
		Summary: summary,
	}
}

func newQuestion(draft types.QuestionDraft, askedAt time.Time) types.Question {
	return types.Question{
		ID:           uuid.New(),
		Text:         draft.Text,
		Type:         draft.Type,
		Difficulty:   draft.Difficulty,
		Strengths:    []string{},
		Improvements: []string{},
		AskedAt:      askedAt,
	}
}
