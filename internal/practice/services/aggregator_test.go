package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// series builds one user's records, one minute apart in the given order.
func series(user string, durationMs int64, scores ...int) []models.PracticeRecord {
	records := make([]models.PracticeRecord, 0, len(scores))
	for i, s := range scores {
		records = append(records, models.PracticeRecord{
			UserID:      user,
			Score:       s,
			DurationMs:  durationMs,
			RecordType:  models.RecordTypePractice,
			CompletedAt: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	return records
}

func TestSummarize_Streak(t *testing.T) {
	summary := Summarize(series("u1", 60000, 90, 85, 60, 95, 88, 92))

	assert.Equal(t, 3, summary.ConsecutiveCorrect)
	assert.Equal(t, 6, summary.HomeworkCount)
	assert.Equal(t, 85, summary.AvgScore)
	assert.Equal(t, 83, summary.StabilityRate)
}

func TestSummarize_StreakUsesCompletionOrder(t *testing.T) {
	records := series("u1", 60000, 90, 85, 60, 95, 88, 92)
	// Shuffle input order; CompletedAt still defines the chronology.
	shuffled := []models.PracticeRecord{records[5], records[2], records[0], records[4], records[1], records[3]}

	assert.Equal(t, 3, Summarize(shuffled).ConsecutiveCorrect)
	// Input untouched.
	assert.Equal(t, 92, shuffled[0].Score)
}

func TestSummarize_ZeroRecords(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.AvgScore)
	assert.Equal(t, 0, summary.AvgTimeMinutes)
	assert.Equal(t, 0, summary.EfficiencyIndex)
	assert.Equal(t, 0, summary.StabilityRate)
	assert.Equal(t, 0, summary.ImprovementIndex)
}

func TestSummarize_ZeroDurationHasNoEfficiency(t *testing.T) {
	summary := Summarize(series("u1", 0, 80, 90))

	assert.Equal(t, 0, summary.EfficiencyIndex)
	assert.Equal(t, 0, summary.AvgTimeMinutes)
	assert.Equal(t, 85, summary.AvgScore)
}

func TestSummarize_AllZeroScores(t *testing.T) {
	summary := Summarize(series("u1", 30000, 0, 0, 0))

	assert.Equal(t, 0, summary.ImprovementIndex)
	assert.Equal(t, 0, summary.EfficiencyIndex)
	assert.Equal(t, 0, summary.StabilityRate)
	assert.Equal(t, 0, summary.MistakeFixRate)
}

func TestSummarize_Metrics(t *testing.T) {
	// 2.5 minutes per session, scores 60, 70, 80, 90, 100.
	summary := Summarize(series("u1", 150000, 60, 70, 80, 90, 100))

	assert.Equal(t, "u1", summary.UserID)
	assert.Equal(t, 80, summary.AvgScore)
	assert.Equal(t, 3, summary.AvgTimeMinutes)     // 2.5 rounds half up
	assert.Equal(t, 13, summary.TotalTimeMinutes)  // 12.5
	assert.Equal(t, 320, summary.EfficiencyIndex)  // 80 / 2.5 * 10
	assert.Equal(t, 60, summary.StabilityRate)     // 3 of 5
	assert.Equal(t, 13, summary.ImprovementIndex)  // (90 - 80) / 80 * 100 = 12.5
	assert.Equal(t, 3, summary.ConsecutiveCorrect) // 80, 90, 100
}

func TestSummarize_MistakeFixRate(t *testing.T) {
	records := series("u1", 60000, 50, 70, 90, 75)
	records[2].RecordType = models.RecordTypeMistakeReview

	// One review against three sub-80 sessions.
	assert.Equal(t, 33, Summarize(records).MistakeFixRate)
}

func TestSummarize_MistakeFixRateIsNotCapped(t *testing.T) {
	records := series("u1", 60000, 50, 90, 95)
	records[1].RecordType = models.RecordTypeMistakeReview
	records[2].RecordType = models.RecordTypeMistakeReview

	// Two reviews against one sub-80 session.
	assert.Equal(t, 200, Summarize(records).MistakeFixRate)
}

func TestSummarize_NegativeImprovementRoundsHalfUp(t *testing.T) {
	// mean 70, last three 65 -> -7.142...
	summary := Summarize(series("u1", 60000, 85, 65, 65, 65))
	assert.Equal(t, -7, summary.ImprovementIndex)
}

func TestSummarizeAll_GroupsByUser(t *testing.T) {
	records := append(series("a", 60000, 90, 80), series("b", 120000, 50)...)
	records = append(records, series("ghost", 60000, 100)...)

	all := SummarizeAll(records)

	assert.Len(t, all, 3)
	assert.Equal(t, 85, all["a"].AvgScore)
	assert.Equal(t, 2, all["a"].HomeworkCount)
	assert.Equal(t, 2, all["b"].AvgTimeMinutes)
	assert.Equal(t, 100, all["ghost"].AvgScore)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3, round(2.5))
	assert.Equal(t, -2, round(-2.5))
	assert.Equal(t, 0, round(math.NaN()))
	assert.Equal(t, 0, round(math.Inf(1)))
}
