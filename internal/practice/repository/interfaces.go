package repository

import (
	"context"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

// RecordStore is the append-only log of practice records.
type RecordStore interface {
	// Append stores a record and returns its RecordID. A second append with the
	// same SessionID writes nothing and returns the existing RecordID with
	// duplicate set. CompletedAt is assigned by the store.
	Append(ctx context.Context, record *models.PracticeRecord) (recordID string, duplicate bool, err error)

	// Query returns matching records ordered by CompletedAt, then arrival.
	Query(ctx context.Context, filter models.RecordFilter) ([]models.PracticeRecord, error)

	// Count returns the number of matching records without loading them.
	Count(ctx context.Context, filter models.RecordFilter) (int64, error)

	// AverageScoresByUser groups matching records by user.
	AverageScoresByUser(ctx context.Context, filter models.RecordFilter) ([]models.UserAverage, error)
}

// UserRepository reads and writes the user directory.
type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// AssignmentRepository stores teacher-authored word lists.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	Get(ctx context.Context, id string) (*models.Assignment, error)
	// List returns newest first.
	List(ctx context.Context, limit, skip int) ([]models.Assignment, error)
}
