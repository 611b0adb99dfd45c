package cache

import "fmt"

func KeyLeaderboard(timeRange string) string {
	return fmt.Sprintf("leaderboard:%s", timeRange)
}

func KeyUserStats(userID string) string {
	return fmt.Sprintf("user_stats:%s", userID)
}

// PrefixAssignments covers every assignment page key.
const PrefixAssignments = "assignments:"

func KeyAssignments(limit, skip int) string {
	return fmt.Sprintf("%s%d:%d", PrefixAssignments, limit, skip)
}
