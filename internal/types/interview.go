// Package types provides type definitions for structured data used throughout the interview-coach system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

// Session lifecycle states. A session starts active and transitions once,
// to completed or cancelled, never back.
const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// QuestionType categorizes an interview question.
type QuestionType string

// Question type constants
const (
	QuestionTechnical   QuestionType = "technical"
	QuestionBehavioral  QuestionType = "behavioral"
	QuestionResumeBased QuestionType = "resume_based"
)

// Difficulty is the difficulty level assigned to a question.
type Difficulty string

// Difficulty constants
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single question/answer/score record inside a session.
// AnsweredAt is set iff Answer is non-empty.
type Question struct {
	ID               uuid.UUID    `json:"id"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	Difficulty       Difficulty   `json:"difficulty"`
	Answer           string       `json:"answer"`
	TimeTakenSeconds int          `json:"time_taken_seconds"`
	Score            float64      `json:"score"`
	Feedback         string       `json:"feedback"`
	Strengths        []string     `json:"strengths"`
	Improvements     []string     `json:"improvements"`
	AskedAt          time.Time    `json:"asked_at"`
	AnsweredAt       *time.Time   `json:"answered_at,omitempty"`
}

// InterviewSession is one candidate's end-to-end interview attempt,
// bounded to MaxQuestions questions. The session aggregate (including its
// embedded questions) is the unit of storage consistency: it is loaded and
// saved whole, guarded by Version for optimistic concurrency.
type InterviewSession struct {
	ID              uuid.UUID     `json:"id"`
	OwnerID         uuid.UUID     `json:"owner_id"`
	JobRole         string        `json:"job_role"`
	ResumeSummary   string        `json:"resume_summary"`
	Questions       []Question    `json:"questions"`
	Status          SessionStatus `json:"status"`
	TotalScore      float64       `json:"total_score"`
	AverageScore    float64       `json:"average_score"`
	Strengths       []string      `json:"strengths"`
	Weaknesses      []string      `json:"weaknesses"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	Version         int64         `json:"version"`
}

// MaxQuestions is the hard ceiling on questions per session.
const MaxQuestions = 10

// QuestionByID returns the question with the given ID, or nil.
func (s *InterviewSession) QuestionByID(id uuid.UUID) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// RecomputeScores recalculates TotalScore and AverageScore over all
// questions. Unanswered questions contribute 0.
func (s *InterviewSession) RecomputeScores() {
	total := 0.0
	for i := range s.Questions {
		total += s.Questions[i].Score
	}
	s.TotalScore = total
	if len(s.Questions) > 0 {
		s.AverageScore = total / float64(len(s.Questions))
	} else {
		s.AverageScore = 0
	}
}
