package repository

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

// AssignmentRepositoryImpl implements AssignmentRepository
type AssignmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &AssignmentRepositoryImpl{db: db}
}

// Create stores a new assignment
func (r *AssignmentRepositoryImpl) Create(ctx context.Context, assignment *models.Assignment) error {
	err := r.db.WithContext(ctx).Create(assignment).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Validation("assignment already exists", assignment.ID)
		}
		return errors.StorageUnavailable("failed to create assignment", err)
	}
	return nil
}

// Get retrieves an assignment by ID
func (r *AssignmentRepositoryImpl) Get(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("assignment")
		}
		return nil, errors.StorageUnavailable("failed to fetch assignment", err)
	}
	return &assignment, nil
}

// List retrieves a page of assignments, newest first
func (r *AssignmentRepositoryImpl) List(ctx context.Context, limit, skip int) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Offset(skip).
		Limit(limit).
		Find(&assignments).Error
	if err != nil {
		return nil, errors.StorageUnavailable("failed to list assignments", err)
	}
	return assignments, nil
}
