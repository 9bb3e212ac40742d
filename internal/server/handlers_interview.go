package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/ingest"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

// StartInterviewRequest represents the request body for POST /interviews.
// ResumeText may be pasted plain text or HTML; markup is stripped before
// the engine sees it. Both fields are optional: missing role falls back to
// the default, missing résumé yields an empty profile.
type StartInterviewRequest struct {
	JobRole    string `json:"job_role,omitempty"`
	ResumeText string `json:"resume_text,omitempty"`
}

// SubmitAnswerRequest represents the request body for answer submission.
type SubmitAnswerRequest struct {
	Answer           string `json:"answer" validate:"required"`
	TimeTakenSeconds int    `json:"time_taken_seconds,omitempty" validate:"gte=0"`
}

// QuestionResponse is the API view of one question.
type QuestionResponse struct {
	Question       *types.Question `json:"question"`
	QuestionNumber int             `json:"question_number"`
	SessionID      uuid.UUID       `json:"session_id"`
}

// AnswerResponse is returned after answer submission.
type AnswerResponse struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	AverageScore float64  `json:"average_score"`
}

// handleStartInterview creates a session and returns it with its first
// question.
func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resumeText, err := ingest.Decode(req.ResumeText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.engine.Start(r.Context(), userID, req.JobRole, resumeText)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// handleNextQuestion appends one generated question to the session.
func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}

	question, err := s.engine.NextQuestion(r.Context(), sessionID, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	session, err := s.engine.Get(r.Context(), sessionID, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, QuestionResponse{
		Question:       question,
		QuestionNumber: len(session.Questions),
		SessionID:      sessionID,
	})
}

// handleSubmitAnswer scores an answer and returns the evaluation plus the
// updated session average.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(r.PathValue("question_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question ID")
		return
	}

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	question, err := s.engine.SubmitAnswer(r.Context(), sessionID, userID, questionID, req.Answer, req.TimeTakenSeconds)
	if err != nil {
		s.respondError(w, err)
		return
	}

	session, err := s.engine.Get(r.Context(), sessionID, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{
		Score:        question.Score,
		Feedback:     question.Feedback,
		Strengths:    question.Strengths,
		Improvements: question.Improvements,
		AverageScore: session.AverageScore,
	})
}

// handleEndInterview finalizes the session.
func (s *Server) handleEndInterview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}

	session, err := s.engine.End(r.Context(), sessionID, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleCancelInterview abandons the session without scoring.
func (s *Server) handleCancelInterview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}

	session, err := s.engine.Cancel(r.Context(), sessionID, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleGetInterview returns the full session, owner-only.
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}

	session, err := s.engine.Get(r.Context(), sessionID, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleInterviewHistory lists the caller's sessions as digests, newest
// first.
func (s *Server) handleInterviewHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := s.engine.History(r.Context(), userID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	digests := make([]types.SessionDigest, 0, len(sessions))
	for _, session := range sessions {
		digests = append(digests, types.SessionDigest{
			ID:           session.ID,
			JobRole:      session.JobRole,
			CompletedAt:  session.CompletedAt,
			AverageScore: session.AverageScore,
			Questions:    len(session.Questions),
		})
	}
	writeJSON(w, http.StatusOK, digests)
}

// sessionRequest extracts the caller's user ID and the session ID path
// parameter, writing the error response itself on failure.
func (s *Server) sessionRequest(w http.ResponseWriter, r *http.Request) (userID, sessionID uuid.UUID, ok bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	sessionID, err = uuid.Parse(r.PathValue("session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

// respondError maps an engine error to its HTTP response and logs 5xx.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, publicMessage(err, status))
}
