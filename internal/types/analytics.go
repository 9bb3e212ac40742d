package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionDigest is a compact view of one completed session for analytics
// and history listings.
type SessionDigest struct {
	ID           uuid.UUID  `json:"id"`
	JobRole      string     `json:"job_role"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	AverageScore float64    `json:"average_score"`
	Questions    int        `json:"questions"`
}

// AnalyticsReport summarizes a candidate's completed interview sessions.
type AnalyticsReport struct {
	TotalInterviews     int             `json:"total_interviews"`
	TotalQuestions      int             `json:"total_questions"`
	OverallAverageScore float64         `json:"overall_average_score"`
	RecentSessions      []SessionDigest `json:"recent_sessions"`
}
