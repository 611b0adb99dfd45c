package services

import (
	"context"
	"sort"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/common/validation"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/repository"
)

// RankEngine orders summaries and answers percentile questions. Percentiles
// come from two store-side counts; records are never loaded for them.
type RankEngine struct {
	store repository.RecordStore
}

// NewRankEngine creates a new rank engine
func NewRankEngine(store repository.RecordStore) *RankEngine {
	return &RankEngine{store: store}
}

type lessFunc func(a, b *models.UserSummary) bool

var comparators = map[models.Dimension]lessFunc{
	models.DimensionScore: func(a, b *models.UserSummary) bool {
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		if a.HomeworkCount != b.HomeworkCount {
			return a.HomeworkCount > b.HomeworkCount
		}
		return a.UserID < b.UserID
	},
	models.DimensionEfficiency: func(a, b *models.UserSummary) bool {
		if a.AvgTimeMinutes != b.AvgTimeMinutes {
			return a.AvgTimeMinutes < b.AvgTimeMinutes
		}
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		return a.UserID < b.UserID
	},
	models.DimensionStability: func(a, b *models.UserSummary) bool {
		if a.ConsecutiveCorrect != b.ConsecutiveCorrect {
			return a.ConsecutiveCorrect > b.ConsecutiveCorrect
		}
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		return a.UserID < b.UserID
	},
}

// ValidDimension reports whether d names a leaderboard ordering.
func ValidDimension(d models.Dimension) bool {
	_, ok := comparators[d]
	return ok
}

// Rank returns a newly ordered slice. The userId tie-break makes the order
// total, so equal statistics always produce the same ranking.
func (e *RankEngine) Rank(summaries []models.UserSummary, dimension models.Dimension) ([]models.UserSummary, error) {
	less, ok := comparators[dimension]
	if !ok {
		return nil, errors.Validation("unknown ranking dimension", string(dimension))
	}

	ranked := make([]models.UserSummary, len(summaries))
	copy(ranked, summaries)
	sort.Slice(ranked, func(i, j int) bool {
		return less(&ranked[i], &ranked[j])
	})
	return ranked, nil
}

// Percentile reports what share of the other attempts on an assignment
// scored strictly lower. The caller's own attempt is assumed to be stored,
// hence the minus one.
func (e *RankEngine) Percentile(ctx context.Context, assignmentID string, score int) (models.PercentileResult, error) {
	if assignmentID == "" {
		return models.PercentileResult{}, errors.Validation("assignment id is required", "")
	}
	if err := validation.ValidateIntRange(score, 0, 100); err != nil {
		return models.PercentileResult{}, errors.Validation("invalid score", err.Error())
	}

	total, err := e.store.Count(ctx, models.RecordFilter{AssignmentID: assignmentID})
	if err != nil {
		return models.PercentileResult{}, err
	}
	if total == 0 {
		return models.PercentileResult{Total: 0, Percentile: 0}, nil
	}

	lowerEq, err := e.store.Count(ctx, models.RecordFilter{AssignmentID: assignmentID, MaxScore: &score})
	if err != nil {
		return models.PercentileResult{}, err
	}

	p := (lowerEq - 1) * 100 / total
	return models.PercentileResult{Total: total, Percentile: clamp(int(p), 0, 100)}, nil
}

// Position ranks a user by average score over every stored record.
func (e *RankEngine) Position(ctx context.Context, userID string) (models.Position, error) {
	rows, err := e.store.AverageScoresByUser(ctx, models.RecordFilter{})
	if err != nil {
		return models.Position{}, err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgScore != rows[j].AvgScore {
			return rows[i].AvgScore > rows[j].AvgScore
		}
		return rows[i].UserID < rows[j].UserID
	})

	pos := models.Position{Total: len(rows)}
	for i, row := range rows {
		if row.UserID == userID {
			pos.Rank = i + 1
			pos.AvgScore = round(row.AvgScore)
			break
		}
	}
	return pos, nil
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
