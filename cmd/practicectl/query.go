package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank users by score, efficiency or stability",
	RunE: func(cmd *cobra.Command, args []string) error {
		dimension, _ := cmd.Flags().GetString("dimension")
		timeRange, _ := cmd.Flags().GetString("range")
		top, _ := cmd.Flags().GetInt("top")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		board, err := a.Service.GetLeaderboard(cmd.Context(), models.Dimension(dimension), models.TimeRange(timeRange), true)
		if err != nil {
			return err
		}
		if top > 0 && len(board.Entries) > top {
			board.Entries = board.Entries[:top]
		}
		return output(cmd, board)
	},
}

var percentileCmd = &cobra.Command{
	Use:   "percentile <assignment-id> <score>",
	Short: "Share of other attempts on an assignment that scored lower",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("score must be an integer: %w", err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Service.GetPercentile(cmd.Context(), args[0], score)
		if err != nil {
			return err
		}
		return output(cmd, result)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <assignment-id>",
	Short: "Completion report for one assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Service.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(cmd, report)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Summary and overall position for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Service.GetUserStats(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		return output(cmd, stats)
	},
}

func init() {
	leaderboardCmd.Flags().String("dimension", string(models.DimensionScore), "score, efficiency or stability")
	leaderboardCmd.Flags().String("range", string(models.TimeRangeWeek), "week or all")
	leaderboardCmd.Flags().Int("top", 0, "Only print the first N entries")
}
