package models

import "time"

// Leaderboard dimensions.
type Dimension string

const (
	DimensionScore      Dimension = "score"
	DimensionEfficiency Dimension = "efficiency"
	DimensionStability  Dimension = "stability"
)

// TimeRange scopes which records feed a leaderboard.
type TimeRange string

const (
	TimeRangeWeek TimeRange = "week"
	TimeRangeAll  TimeRange = "all"
)

// Profile defaults for users without a directory entry.
const (
	DefaultDisplayName = "Anonymous"
	DefaultAvatarRef   = "/images/avatar.png"
)

// UserSummary is derived from a user's records and never stored as truth.
type UserSummary struct {
	UserID             string `json:"user_id"`
	DisplayName        string `json:"display_name"`
	AvatarRef          string `json:"avatar_ref"`
	Sign               string `json:"sign,omitempty"`
	HomeworkCount      int    `json:"homework_count"`
	AvgScore           int    `json:"avg_score"`
	AvgTimeMinutes     int    `json:"avg_time_minutes"`
	TotalTimeMinutes   int    `json:"total_time_minutes"`
	ConsecutiveCorrect int    `json:"consecutive_correct"`
	StabilityRate      int    `json:"stability_rate"`
	EfficiencyIndex    int    `json:"efficiency_index"`
	ImprovementIndex   int    `json:"improvement_index"`
	MistakeFixRate     int    `json:"mistake_fix_rate"` // reviews per sub-80 session, in percent; may exceed 100
}

// PercentileResult: Percentile is the share of other attempts strictly below.
type PercentileResult struct {
	Total      int64 `json:"total"`
	Percentile int   `json:"percentile"`
}

// Position is a user's standing by average score across all records.
// Rank is 1-based and 0 when the user has no records.
type Position struct {
	Rank     int `json:"rank"`
	Total    int `json:"total"`
	AvgScore int `json:"avg_score"`
}

// UserAverage is the store-side GROUP BY row behind Position.
type UserAverage struct {
	UserID   string
	AvgScore float64
}

type Leaderboard struct {
	Dimension   Dimension     `json:"dimension"`
	TimeRange   TimeRange     `json:"time_range"`
	Entries     []UserSummary `json:"entries"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type UserStats struct {
	Summary     UserSummary `json:"summary"`
	Position    Position    `json:"position"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// CompletedEntry is one student's best result on an assignment. History
// holds every attempt in completion order.
type CompletedEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   string    `json:"avatar_ref"`
	Score       int       `json:"score"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
	Attempts    int       `json:"attempts"`
	RecordID    string    `json:"record_id"`

	History []AttemptEntry `json:"history"`
}

// AttemptEntry is one stored record behind a CompletedEntry.
type AttemptEntry struct {
	RecordID    string    `json:"record_id"`
	Score       int       `json:"score"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

type PendingEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

type ReportStats struct {
	AvgScore       int `json:"avg_score"`
	MaxScore       int `json:"max_score"`
	MinScore       int `json:"min_score"`
	AvgTimeMinutes int `json:"avg_time_minutes"`
	CompletionRate int `json:"completion_rate"`
}

type Report struct {
	AssignmentID string           `json:"assignment_id"`
	Completed    []CompletedEntry `json:"completed"`
	NotCompleted []PendingEntry   `json:"not_completed"`
	Stats        ReportStats      `json:"stats"`
}
