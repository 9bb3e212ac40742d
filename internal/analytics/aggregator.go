// Package analytics derives summary statistics from completed interview
// sessions.
package analytics

import (
	"sort"
	"time"

	"github.com/jonathan/interview-coach/internal/types"
)

// maxRecentSessions caps the digest list in a report.
const maxRecentSessions = 5

// Aggregate summarizes completed sessions into a report. It is a pure
// function: sessions that are not completed are ignored, empty input
// yields a zeroed report, and the overall average is the mean of each
// session's average score, not re-weighted by question count.
func Aggregate(sessions []*types.InterviewSession) *types.AnalyticsReport {
	completed := make([]*types.InterviewSession, 0, len(sessions))
	for _, s := range sessions {
		if s != nil && s.Status == types.StatusCompleted {
			completed = append(completed, s)
		}
	}

	report := &types.AnalyticsReport{
		TotalInterviews: len(completed),
		RecentSessions:  []types.SessionDigest{},
	}

	sum := 0.0
	for _, s := range completed {
		report.TotalQuestions += len(s.Questions)
		sum += s.AverageScore
	}
	if len(completed) > 0 {
		report.OverallAverageScore = sum / float64(len(completed))
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completedTime(completed[i]).After(completedTime(completed[j]))
	})
	for _, s := range completed {
		if len(report.RecentSessions) >= maxRecentSessions {
			break
		}
		report.RecentSessions = append(report.RecentSessions, types.SessionDigest{
			ID:           s.ID,
			JobRole:      s.JobRole,
			CompletedAt:  s.CompletedAt,
			AverageScore: s.AverageScore,
			Questions:    len(s.Questions),
		})
	}

	return report
}

func completedTime(s *types.InterviewSession) time.Time {
	if s.CompletedAt != nil {
		return *s.CompletedAt
	}
	return time.Time{}
}
