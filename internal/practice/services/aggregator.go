package services

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

const (
	// HighScore is the threshold for streaks, stability and mistake tracking.
	HighScore = 80
	// recentWindow is how many latest records feed the improvement index.
	recentWindow = 3

	msPerMinute = 60000.0
)

// Summarize derives one user's statistics from their records. It is pure:
// the input slice is not modified and nothing is read from storage.
func Summarize(records []models.PracticeRecord) models.UserSummary {
	if len(records) == 0 {
		return models.UserSummary{}
	}

	ordered := make([]models.PracticeRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	n := float64(len(ordered))
	var (
		sumScore    float64
		sumDuration float64
		high        int
		belowHigh   int
		reviews     int
		run         int
		longest     int
	)
	for _, r := range ordered {
		sumScore += float64(r.Score)
		sumDuration += float64(r.DurationMs)
		if r.RecordType == models.RecordTypeMistakeReview {
			reviews++
		}
		if r.Score >= HighScore {
			high++
			run++
			if run > longest {
				longest = run
			}
		} else {
			belowHigh++
			run = 0
		}
	}

	meanScore := sumScore / n
	meanMinutes := sumDuration / n / msPerMinute

	summary := models.UserSummary{
		UserID:             ordered[0].UserID,
		HomeworkCount:      len(ordered),
		AvgScore:           round(meanScore),
		AvgTimeMinutes:     round(meanMinutes),
		TotalTimeMinutes:   round(sumDuration / msPerMinute),
		ConsecutiveCorrect: longest,
		StabilityRate:      round(float64(high) / n * 100),
	}

	// Unrounded means, so sub-minute sessions still produce an index.
	if meanMinutes > 0 {
		summary.EfficiencyIndex = round(meanScore / meanMinutes * 10)
	}

	if meanScore > 0 {
		recent := ordered[max(0, len(ordered)-recentWindow):]
		var recentSum float64
		for _, r := range recent {
			recentSum += float64(r.Score)
		}
		recentMean := recentSum / float64(len(recent))
		summary.ImprovementIndex = round((recentMean - meanScore) / meanScore * 100)
	}

	if belowHigh > 0 {
		summary.MistakeFixRate = round(float64(reviews) / float64(belowHigh) * 100)
	}

	return summary
}

// SummarizeAll groups records by user and summarizes each group. Users with
// no directory entry are included; profile fields are left empty.
func SummarizeAll(records []models.PracticeRecord) map[string]models.UserSummary {
	grouped := lo.GroupBy(records, func(r models.PracticeRecord) string {
		return r.UserID
	})

	summaries := make(map[string]models.UserSummary, len(grouped))
	for userID, userRecords := range grouped {
		summaries[userID] = Summarize(userRecords)
	}
	return summaries
}

// round is half-up, matching how the client app rounds for display.
func round(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}
