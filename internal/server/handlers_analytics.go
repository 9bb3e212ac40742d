package server

import (
	"net/http"

	"github.com/jonathan/interview-coach/internal/analytics"
	"github.com/jonathan/interview-coach/internal/server/middleware"
)

// handleAnalytics aggregates the caller's completed sessions.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := s.engine.Completed(r.Context(), userID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics.Aggregate(sessions))
}
