package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/services"
)

var demoWords = []string{
	"abandon", "benefit", "candid", "diligent", "eloquent", "fragile",
	"genuine", "humble", "integrity", "jovial", "keen", "lucid",
}

type seedOptions struct {
	Students    int
	Assignments int
	Seed        uint64
}

type seedSummary struct {
	Users       int `json:"users" yaml:"users"`
	Assignments int `json:"assignments" yaml:"assignments"`
	Created     int `json:"created" yaml:"created"`
	Duplicates  int `json:"duplicates" yaml:"duplicates"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo roster, assignments and practice records",
	Long:  "Seeding is repeatable: session ids are derived from the inputs, so running it twice reports duplicates instead of adding rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts seedOptions
		opts.Students, _ = cmd.Flags().GetInt("students")
		opts.Assignments, _ = cmd.Flags().GetInt("assignments")
		opts.Seed, _ = cmd.Flags().GetUint64("seed")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := seedDemo(cmd.Context(), a.Service, opts)
		if err != nil {
			return err
		}
		return output(cmd, summary)
	},
}

func init() {
	seedCmd.Flags().Int("students", 10, "Number of students")
	seedCmd.Flags().Int("assignments", 3, "Number of assignments")
	seedCmd.Flags().Uint64("seed", 1, "Random seed for scores and durations")
}

// seedDemo writes one teacher, the students and the assignments, then a
// record for roughly two thirds of the student/assignment pairs.
func seedDemo(ctx context.Context, svc *services.PracticeService, opts seedOptions) (seedSummary, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	var summary seedSummary

	if _, err := svc.UpsertUser(ctx, models.UpsertUserRequest{ID: "teacher-1", DisplayName: "Ms. Lin", Role: models.RoleTeacher}); err != nil {
		return summary, err
	}
	summary.Users++

	students := make([]string, 0, opts.Students)
	for i := 1; i <= opts.Students; i++ {
		id := fmt.Sprintf("student-%02d", i)
		if _, err := svc.UpsertUser(ctx, models.UpsertUserRequest{
			ID:          id,
			DisplayName: fmt.Sprintf("Student %02d", i),
			Role:        models.RoleStudent,
		}); err != nil {
			return summary, err
		}
		students = append(students, id)
		summary.Users++
	}

	for n := 1; n <= opts.Assignments; n++ {
		assignmentID := fmt.Sprintf("hw-%02d", n)
		words := demoWords[(n-1)%len(demoWords):]
		if len(words) > 6 {
			words = words[:6]
		}

		_, err := svc.CreateAssignment(ctx, models.CreateAssignmentRequest{
			ID:        assignmentID,
			Title:     fmt.Sprintf("Week %d vocabulary", n),
			Words:     words,
			CreatedBy: "teacher-1",
		})
		if err != nil && !stderrors.Is(err, errors.ErrValidation) {
			return summary, err
		}
		summary.Assignments++

		for _, student := range students {
			if rng.IntN(3) == 0 {
				continue
			}
			total := len(words) * 2
			correct := total/2 + rng.IntN(total/2+1)
			res, err := svc.SubmitRecord(ctx, models.SubmitRecordRequest{
				AssignmentID: assignmentID,
				UserID:       student,
				SessionID:    fmt.Sprintf("seed-%d-%s-%s", opts.Seed, assignmentID, student),
				Score:        correct * 100 / total,
				TotalItems:   total,
				CorrectItems: correct,
				DurationMs:   int64(60_000 + rng.IntN(240_000)),
			})
			if err != nil {
				return summary, err
			}
			if res.Duplicate {
				summary.Duplicates++
			} else {
				summary.Created++
			}
		}
	}
	return summary, nil
}
