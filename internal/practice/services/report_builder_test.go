package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/repository"
)

func TestBuildReport_RosterPartition(t *testing.T) {
	reg := setupTestDB(t)
	for i := 0; i < 10; i++ {
		addStudent(t, reg, fmt.Sprintf("s%02d", i), fmt.Sprintf("Student %02d", i))
	}
	require.NoError(t, reg.Users.Upsert(context.Background(), &models.User{ID: "t1", DisplayName: "Teacher", Role: models.RoleTeacher}))

	for i := 0; i < 6; i++ {
		appendScore(t, reg.Records, "hw1", fmt.Sprintf("s%02d", i), 60+i*5, 120000)
	}
	// A retry, a non-roster user, the teacher and another assignment.
	appendScore(t, reg.Records, "hw1", "s00", 95, 60000)
	appendScore(t, reg.Records, "hw1", "outsider", 100, 60000)
	appendScore(t, reg.Records, "hw1", "t1", 100, 60000)
	appendScore(t, reg.Records, "hw2", "s09", 100, 60000)

	report, err := NewReportBuilder(reg.Records, reg.Users).BuildReport(context.Background(), "hw1")
	require.NoError(t, err)

	assert.Len(t, report.Completed, 6)
	assert.Len(t, report.NotCompleted, 4)

	seen := map[string]int{}
	for _, c := range report.Completed {
		seen[c.UserID]++
	}
	for _, p := range report.NotCompleted {
		seen[p.UserID]++
	}
	assert.Len(t, seen, 10)
	for id, n := range seen {
		assert.Equal(t, 1, n, "student %s listed more than once", id)
	}

	// Best attempt wins and sorts first.
	first := report.Completed[0]
	assert.Equal(t, "s00", first.UserID)
	assert.Equal(t, 95, first.Score)
	assert.Equal(t, 2, first.Attempts)
	assert.Equal(t, "Student 00", first.DisplayName)
	require.Len(t, first.History, 2)
	assert.Equal(t, 60, first.History[0].Score)
	assert.Equal(t, 95, first.History[1].Score)
	assert.Equal(t, first.RecordID, first.History[1].RecordID)
	assert.Len(t, report.Completed[1].History, 1)

	scores := make([]int, 0, len(report.Completed))
	for _, c := range report.Completed {
		scores = append(scores, c.Score)
	}
	assert.Equal(t, []int{95, 85, 80, 75, 70, 65}, scores)

	assert.Equal(t, "s06", report.NotCompleted[0].UserID)
	assert.Equal(t, models.ReportStats{
		AvgScore:       78, // 470 / 6
		MaxScore:       95,
		MinScore:       65,
		AvgTimeMinutes: 2, // (60000 + 5*120000) / 6 = 110000ms
		CompletionRate: 60,
	}, report.Stats)
}

func TestBuildReport_NoRecords(t *testing.T) {
	reg := setupTestDB(t)
	addStudent(t, reg, "s1", "")

	report, err := NewReportBuilder(reg.Records, reg.Users).BuildReport(context.Background(), "hw-empty")
	require.NoError(t, err)

	assert.Empty(t, report.Completed)
	require.Len(t, report.NotCompleted, 1)
	assert.Equal(t, models.DefaultDisplayName, report.NotCompleted[0].DisplayName)
	assert.Equal(t, models.DefaultAvatarRef, report.NotCompleted[0].AvatarRef)
	assert.Equal(t, models.ReportStats{}, report.Stats)
}

func TestAssembleReport_TiesOrderByCompletionThenID(t *testing.T) {
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	roster := []models.User{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	records := []models.PracticeRecord{
		{UserID: "c", Score: 80, CompletedAt: at},
		{UserID: "a", Score: 80, CompletedAt: at.Add(time.Minute)},
		{UserID: "b", Score: 80, CompletedAt: at},
	}

	report := assembleReport("hw", roster, records)

	ids := []string{}
	for _, c := range report.Completed {
		ids = append(ids, c.UserID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Equal(t, 100, report.Stats.CompletionRate)
}

// recordingStore remembers the filters passed to Query.
type recordingStore struct {
	repository.RecordStore
	filters []models.RecordFilter
}

func (r *recordingStore) Query(ctx context.Context, filter models.RecordFilter) ([]models.PracticeRecord, error) {
	r.filters = append(r.filters, filter)
	return r.RecordStore.Query(ctx, filter)
}

func TestBuildReport_QueriesOnlyRosterRecords(t *testing.T) {
	reg := setupTestDB(t)
	addStudent(t, reg, "s1", "Sam")
	addStudent(t, reg, "s2", "Kim")
	appendScore(t, reg.Records, "hw1", "s1", 90, 60000)
	appendScore(t, reg.Records, "hw1", "outsider", 100, 60000)

	store := &recordingStore{RecordStore: reg.Records}
	report, err := NewReportBuilder(store, reg.Users).BuildReport(context.Background(), "hw1")
	require.NoError(t, err)

	require.Len(t, store.filters, 1)
	assert.Equal(t, "hw1", store.filters[0].AssignmentID)
	assert.ElementsMatch(t, []string{"s1", "s2"}, store.filters[0].UserIDs)

	require.Len(t, report.Completed, 1)
	assert.Equal(t, "s1", report.Completed[0].UserID)
	assert.Equal(t, 90, report.Stats.MaxScore)
}

func TestBuildReport_EmptyRosterQueriesNothing(t *testing.T) {
	reg := setupTestDB(t)
	appendScore(t, reg.Records, "hw1", "outsider", 100, 60000)

	store := &recordingStore{RecordStore: reg.Records}
	report, err := NewReportBuilder(store, reg.Users).BuildReport(context.Background(), "hw1")
	require.NoError(t, err)

	require.Len(t, store.filters, 1)
	assert.NotNil(t, store.filters[0].UserIDs)
	assert.Empty(t, store.filters[0].UserIDs)
	assert.Empty(t, report.Completed)
	assert.Empty(t, report.NotCompleted)
}
