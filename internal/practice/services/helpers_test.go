package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/repository"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *repository.Registry {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	reg := repository.NewRegistry(db)
	require.NoError(t, reg.AutoMigrate())
	return reg
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var sessionSeq int

func appendScore(t *testing.T, store repository.RecordStore, assignment, user string, score int, durationMs int64) {
	t.Helper()
	sessionSeq++
	_, _, err := store.Append(context.Background(), &models.PracticeRecord{
		AssignmentID: assignment,
		UserID:       user,
		SessionID:    fmt.Sprintf("sess-%d", sessionSeq),
		Score:        score,
		TotalItems:   10,
		CorrectItems: score / 10,
		DurationMs:   durationMs,
	})
	require.NoError(t, err)
}

func addStudent(t *testing.T, reg *repository.Registry, id, name string) {
	t.Helper()
	require.NoError(t, reg.Users.Upsert(context.Background(), &models.User{ID: id, DisplayName: name, Role: models.RoleStudent}))
}
