package services

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/repository"
)

// ReportBuilder joins the student roster with an assignment's records.
type ReportBuilder struct {
	store repository.RecordStore
	users repository.UserRepository
}

// NewReportBuilder creates a new report builder
func NewReportBuilder(store repository.RecordStore, users repository.UserRepository) *ReportBuilder {
	return &ReportBuilder{store: store, users: users}
}

// BuildReport partitions the roster into students who completed the
// assignment and students who did not. Every roster student lands in exactly
// one list. The records query is restricted to roster ids, so records from
// users outside the roster never leave the store.
func (b *ReportBuilder) BuildReport(ctx context.Context, assignmentID string) (models.Report, error) {
	roster, err := b.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return models.Report{AssignmentID: assignmentID}, err
	}

	records, err := b.store.Query(ctx, models.RecordFilter{
		AssignmentID: assignmentID,
		UserIDs:      lo.Map(roster, func(u models.User, _ int) string { return u.ID }),
	})
	if err != nil {
		return models.Report{AssignmentID: assignmentID}, err
	}

	return assembleReport(assignmentID, roster, records), nil
}

// assembleReport builds the views. A student with several attempts gets one
// completed entry scored by the best attempt, so completed + not completed
// always equals the roster; every attempt is still listed in History.
func assembleReport(assignmentID string, roster []models.User, records []models.PracticeRecord) models.Report {
	students := lo.KeyBy(roster, func(u models.User) string { return u.ID })
	byUser := lo.GroupBy(
		lo.Filter(records, func(r models.PracticeRecord, _ int) bool {
			_, ok := students[r.UserID]
			return ok
		}),
		func(r models.PracticeRecord) string { return r.UserID },
	)

	report := models.Report{
		AssignmentID: assignmentID,
		Completed:    make([]models.CompletedEntry, 0, len(byUser)),
		NotCompleted: make([]models.PendingEntry, 0, len(roster)-len(byUser)),
	}

	for _, student := range roster {
		attempts, done := byUser[student.ID]
		name, avatar := profileOf(&student)
		if !done {
			report.NotCompleted = append(report.NotCompleted, models.PendingEntry{
				UserID:      student.ID,
				DisplayName: name,
				AvatarRef:   avatar,
			})
			continue
		}

		best := bestAttempt(attempts)
		report.Completed = append(report.Completed, models.CompletedEntry{
			UserID:      student.ID,
			DisplayName: name,
			AvatarRef:   avatar,
			Score:       best.Score,
			DurationMs:  best.DurationMs,
			CompletedAt: best.CompletedAt,
			Attempts:    len(attempts),
			RecordID:    best.RecordID,
			History:     attemptHistory(attempts),
		})
	}

	sort.Slice(report.Completed, func(i, j int) bool {
		a, b := report.Completed[i], report.Completed[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.UserID < b.UserID
	})
	sort.Slice(report.NotCompleted, func(i, j int) bool {
		a, b := report.NotCompleted[i], report.NotCompleted[j]
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.UserID < b.UserID
	})

	report.Stats = reportStats(report.Completed, len(report.Completed)+len(report.NotCompleted))
	return report
}

// bestAttempt picks the highest score; among equals the latest one wins.
// attempts arrive in completion order.
func bestAttempt(attempts []models.PracticeRecord) models.PracticeRecord {
	best := attempts[0]
	for _, r := range attempts[1:] {
		if r.Score >= best.Score {
			best = r
		}
	}
	return best
}

// attemptHistory lists attempts in completion order.
func attemptHistory(attempts []models.PracticeRecord) []models.AttemptEntry {
	return lo.Map(attempts, func(r models.PracticeRecord, _ int) models.AttemptEntry {
		return models.AttemptEntry{
			RecordID:    r.RecordID,
			Score:       r.Score,
			DurationMs:  r.DurationMs,
			CompletedAt: r.CompletedAt,
		}
	})
}

func reportStats(completed []models.CompletedEntry, rosterSize int) models.ReportStats {
	if len(completed) == 0 {
		return models.ReportStats{}
	}

	var sumScore, sumDuration float64
	stats := models.ReportStats{MaxScore: completed[0].Score, MinScore: completed[0].Score}
	for _, c := range completed {
		sumScore += float64(c.Score)
		sumDuration += float64(c.DurationMs)
		stats.MaxScore = max(stats.MaxScore, c.Score)
		stats.MinScore = min(stats.MinScore, c.Score)
	}

	n := float64(len(completed))
	stats.AvgScore = round(sumScore / n)
	stats.AvgTimeMinutes = round(sumDuration / n / msPerMinute)
	if rosterSize > 0 {
		stats.CompletionRate = round(n / float64(rosterSize) * 100)
	}
	return stats
}

// profileOf applies the display defaults for blank profile fields.
func profileOf(u *models.User) (string, string) {
	if u == nil {
		return models.DefaultDisplayName, models.DefaultAvatarRef
	}
	name, avatar := u.DisplayName, u.AvatarRef
	if name == "" {
		name = models.DefaultDisplayName
	}
	if avatar == "" {
		avatar = models.DefaultAvatarRef
	}
	return name, avatar
}
