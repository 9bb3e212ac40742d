package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/types"
)

func completedSession(jobRole string, avgScore float64, questions int, completedAt time.Time) *types.InterviewSession {
	qs := make([]types.Question, questions)
	return &types.InterviewSession{
		ID:           uuid.New(),
		JobRole:      jobRole,
		Questions:    qs,
		Status:       types.StatusCompleted,
		AverageScore: avgScore,
		CompletedAt:  &completedAt,
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	report := Aggregate(nil)

	assert.Equal(t, 0, report.TotalInterviews)
	assert.Equal(t, 0, report.TotalQuestions)
	assert.Equal(t, 0.0, report.OverallAverageScore)
	assert.NotNil(t, report.RecentSessions)
	assert.Empty(t, report.RecentSessions)
}

func TestAggregateIgnoresNonCompletedSessions(t *testing.T) {
	now := time.Now().UTC()
	sessions := []*types.InterviewSession{
		completedSession("SRE", 8, 3, now),
		{Status: types.StatusActive, AverageScore: 10, Questions: make([]types.Question, 5)},
		{Status: types.StatusCancelled, AverageScore: 10, Questions: make([]types.Question, 5)},
		nil,
	}

	report := Aggregate(sessions)

	assert.Equal(t, 1, report.TotalInterviews)
	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 8.0, report.OverallAverageScore)
}

func TestAggregateAveragesPerSessionNotPerQuestion(t *testing.T) {
	now := time.Now().UTC()
	sessions := []*types.InterviewSession{
		completedSession("SRE", 10, 1, now),
		completedSession("SRE", 4, 9, now.Add(-time.Hour)),
	}

	report := Aggregate(sessions)

	// Mean of session averages, not weighted by the 1-vs-9 question split.
	assert.Equal(t, 7.0, report.OverallAverageScore)
	assert.Equal(t, 10, report.TotalQuestions)
}

func TestAggregateRecentSessionsNewestFirstCapped(t *testing.T) {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	var sessions []*types.InterviewSession
	for i := 0; i < 8; i++ {
		sessions = append(sessions, completedSession("Backend Engineer", 7, 2, base.Add(time.Duration(i)*time.Hour)))
	}

	report := Aggregate(sessions)

	require.Len(t, report.RecentSessions, 5)
	for i := 0; i < len(report.RecentSessions)-1; i++ {
		current := *report.RecentSessions[i].CompletedAt
		next := *report.RecentSessions[i+1].CompletedAt
		assert.True(t, !current.Before(next), "digests must be newest first")
	}
	assert.Equal(t, base.Add(7*time.Hour), *report.RecentSessions[0].CompletedAt)
}

func TestAggregateDigestFields(t *testing.T) {
	completedAt := time.Date(2025, 5, 2, 14, 30, 0, 0, time.UTC)
	s := completedSession("Data Engineer", 6.5, 4, completedAt)

	report := Aggregate([]*types.InterviewSession{s})

	require.Len(t, report.RecentSessions, 1)
	digest := report.RecentSessions[0]
	assert.Equal(t, s.ID, digest.ID)
	assert.Equal(t, "Data Engineer", digest.JobRole)
	assert.Equal(t, 6.5, digest.AverageScore)
	assert.Equal(t, 4, digest.Questions)
	assert.Equal(t, completedAt, *digest.CompletedAt)
}
