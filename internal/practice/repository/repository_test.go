package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// One connection keeps every goroutine on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, NewRegistry(db).AutoMigrate())
	return db
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func record(assignment, user, session string, score int) *models.PracticeRecord {
	return &models.PracticeRecord{
		AssignmentID: assignment,
		UserID:       user,
		SessionID:    session,
		Score:        score,
		TotalItems:   10,
		CorrectItems: score / 10,
		DurationMs:   60000,
	}
}

func TestRecordStore_AppendIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewRecordStore(db)
	ctx := context.Background()

	id1, dup1, err := store.Append(ctx, record("hw1", "u1", "s-1", 90))
	require.NoError(t, err)
	assert.False(t, dup1)
	assert.NotEmpty(t, id1)

	id2, dup2, err := store.Append(ctx, record("hw1", "u1", "s-1", 40))
	require.NoError(t, err)
	assert.True(t, dup2)
	assert.Equal(t, id1, id2)

	count, err := store.Count(ctx, models.RecordFilter{AssignmentID: "hw1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	records, err := store.Query(ctx, models.RecordFilter{AssignmentID: "hw1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 90, records[0].Score)
	assert.Equal(t, models.RecordTypePractice, records[0].RecordType)
}

func TestRecordStore_ConcurrentAppendsLoseNothing(t *testing.T) {
	db := setupTestDB(t)
	store := NewRecordStore(db)
	ctx := context.Background()

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		session := fmt.Sprintf("session-%d", i)
		go func(i int) {
			defer wg.Done()
			_, _, err := store.Append(ctx, record("hw1", fmt.Sprintf("u%d", i), session, i%101))
			errs <- err
		}(i)
		// Same session raced from a second goroutine.
		go func(i int) {
			defer wg.Done()
			_, _, err := store.Append(ctx, record("hw1", fmt.Sprintf("u%d", i), session, i%101))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	count, err := store.Count(ctx, models.RecordFilter{AssignmentID: "hw1"})
	require.NoError(t, err)
	assert.Equal(t, int64(writers), count)
}

func TestRecordStore_QueryOrderAndFilters(t *testing.T) {
	db := setupTestDB(t)
	clock := &stepClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := NewRecordStore(db).WithClock(clock.Now)
	ctx := context.Background()

	for i, score := range []int{70, 95, 40, 88} {
		_, _, err := store.Append(ctx, record("hw1", "u1", fmt.Sprintf("s%d", i), score))
		require.NoError(t, err)
	}
	review := record("hw1", "u1", "s-review", 60)
	review.RecordType = models.RecordTypeMistakeReview
	_, _, err := store.Append(ctx, review)
	require.NoError(t, err)
	_, _, err = store.Append(ctx, record("hw2", "u2", "s-other", 100))
	require.NoError(t, err)

	records, err := store.Query(ctx, models.RecordFilter{UserID: "u1"})
	require.NoError(t, err)
	scores := make([]int, 0, len(records))
	for _, r := range records {
		scores = append(scores, r.Score)
	}
	assert.Equal(t, []int{70, 95, 40, 88, 60}, scores)

	maxScore := 70
	count, err := store.Count(ctx, models.RecordFilter{AssignmentID: "hw1", MaxScore: &maxScore})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Records were stamped one second apart starting at 08:00:01.
	since := time.Date(2024, 3, 1, 8, 0, 4, 0, time.UTC)
	records, err = store.Query(ctx, models.RecordFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = store.Query(ctx, models.RecordFilter{UserIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = store.Query(ctx, models.RecordFilter{UserIDs: []string{"u2", "ghost"}})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordStore_AppendStampsServerTime(t *testing.T) {
	db := setupTestDB(t)
	fixed := time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)
	store := NewRecordStore(db).WithClock(func() time.Time { return fixed })

	rec := record("hw1", "u1", "s1", 50)
	rec.CompletedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := store.Append(context.Background(), rec)
	require.NoError(t, err)

	records, err := store.Query(context.Background(), models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, fixed.Equal(records[0].CompletedAt))
}

func TestRecordStore_AverageScoresByUser(t *testing.T) {
	db := setupTestDB(t)
	store := NewRecordStore(db)
	ctx := context.Background()

	inputs := []struct {
		user  string
		score int
	}{{"u1", 80}, {"u1", 90}, {"u2", 60}}
	for i, in := range inputs {
		_, _, err := store.Append(ctx, record("hw1", in.user, fmt.Sprintf("s%d", i), in.score))
		require.NoError(t, err)
	}

	rows, err := store.AverageScoresByUser(ctx, models.RecordFilter{})
	require.NoError(t, err)
	byUser := map[string]float64{}
	for _, r := range rows {
		byUser[r.UserID] = r.AvgScore
	}
	assert.InDelta(t, 85.0, byUser["u1"], 0.001)
	assert.InDelta(t, 60.0, byUser["u2"], 0.001)
}

func TestRecordStore_ClosedDatabaseIsStorageUnavailable(t *testing.T) {
	db := setupTestDB(t)
	store := NewRecordStore(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, _, err = store.Append(context.Background(), record("hw1", "u1", "s1", 50))
	assert.True(t, stderrors.Is(err, errors.ErrStorageUnavailable))

	_, err = store.Count(context.Background(), models.RecordFilter{})
	assert.True(t, stderrors.Is(err, errors.ErrStorageUnavailable))
}

func TestUserRepository_UpsertAndRoster(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "s2", DisplayName: "Bo"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "s1", DisplayName: "Al"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "t1", DisplayName: "Teach", Role: models.RoleTeacher}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "s2", DisplayName: "Bob", AvatarRef: "/a.png"}))

	user, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", user.DisplayName)
	assert.Equal(t, "/a.png", user.AvatarRef)

	roster, err := repo.ListByRole(ctx, models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "s1", roster[0].ID)
	assert.Equal(t, "s2", roster[1].ID)

	users, err := repo.ListByIDs(ctx, []string{"s1", "t1", "nobody"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = repo.Get(ctx, "nobody")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestAssignmentRepository_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := repo.Create(ctx, &models.Assignment{
			ID:        fmt.Sprintf("hw%d", i),
			Title:     fmt.Sprintf("Unit %d", i),
			Words:     []string{"apple", "banana"},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "hw3", page[0].ID)
	assert.Equal(t, "hw2", page[1].ID)

	got, err := repo.Get(ctx, "hw4")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana"}, []string(got.Words))

	err = repo.Create(ctx, &models.Assignment{ID: "hw0", Title: "again"})
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	_, err = repo.Get(ctx, "missing")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}
