package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

// RecordStoreImpl implements RecordStore on gorm.
type RecordStoreImpl struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecordStore creates a new record store
func NewRecordStore(db *gorm.DB) *RecordStoreImpl {
	return &RecordStoreImpl{db: db, now: time.Now}
}

// WithClock replaces the clock used to stamp CompletedAt.
func (r *RecordStoreImpl) WithClock(now func() time.Time) *RecordStoreImpl {
	r.now = now
	return r
}

// Append inserts the record unless its session was already stored. The unique
// index on session_id makes concurrent duplicates collapse to one row.
func (r *RecordStoreImpl) Append(ctx context.Context, record *models.PracticeRecord) (string, bool, error) {
	record.ID = 0
	if record.RecordID == "" {
		record.RecordID = uuid.NewString()
	}
	if record.RecordType == "" {
		record.RecordType = models.RecordTypePractice
	}
	record.CompletedAt = r.now().UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return "", false, errors.StorageUnavailable("failed to append record", result.Error)
	}
	if result.RowsAffected == 1 {
		return record.RecordID, false, nil
	}

	var existing models.PracticeRecord
	err := r.db.WithContext(ctx).
		Select("record_id").
		Where("session_id = ?", record.SessionID).
		Take(&existing).Error
	if err != nil {
		return "", false, errors.StorageUnavailable("failed to resolve duplicate session", err)
	}
	return existing.RecordID, true, nil
}

// Query retrieves records matching the filter
func (r *RecordStoreImpl) Query(ctx context.Context, filter models.RecordFilter) ([]models.PracticeRecord, error) {
	var records []models.PracticeRecord
	err := r.scoped(ctx, filter).
		Order("completed_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.StorageUnavailable("failed to query records", err)
	}
	return records, nil
}

// Count counts records matching the filter
func (r *RecordStoreImpl) Count(ctx context.Context, filter models.RecordFilter) (int64, error) {
	var count int64
	if err := r.scoped(ctx, filter).Count(&count).Error; err != nil {
		return 0, errors.StorageUnavailable("failed to count records", err)
	}
	return count, nil
}

// AverageScoresByUser returns one row per user with their mean score
func (r *RecordStoreImpl) AverageScoresByUser(ctx context.Context, filter models.RecordFilter) ([]models.UserAverage, error) {
	var rows []models.UserAverage
	err := r.scoped(ctx, filter).
		Select("user_id, AVG(score) AS avg_score").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.StorageUnavailable("failed to aggregate scores", err)
	}
	return rows, nil
}

// scoped applies the filter. A non-nil empty UserIDs matches nothing.
func (r *RecordStoreImpl) scoped(ctx context.Context, filter models.RecordFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.PracticeRecord{})

	if filter.AssignmentID != "" {
		q = q.Where("assignment_id = ?", filter.AssignmentID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.UserIDs != nil {
		if len(filter.UserIDs) == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("user_id IN ?", filter.UserIDs)
		}
	}
	if filter.Since != nil {
		q = q.Where("completed_at >= ?", filter.Since.UTC())
	}
	if filter.MaxScore != nil {
		q = q.Where("score <= ?", *filter.MaxScore)
	}
	return q
}
