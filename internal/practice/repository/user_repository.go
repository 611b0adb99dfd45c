package repository

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Upsert creates the user or overwrites its profile fields
func (r *UserRepositoryImpl) Upsert(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar_ref", "sign", "role", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		return errors.StorageUnavailable("failed to save user", err)
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepositoryImpl) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("user")
		}
		return nil, errors.StorageUnavailable("failed to fetch user", err)
	}
	return &user, nil
}

// ListByIDs retrieves the users that exist among ids
func (r *UserRepositoryImpl) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.StorageUnavailable("failed to fetch users", err)
	}
	return users, nil
}

// ListByRole retrieves every user with the given role
func (r *UserRepositoryImpl) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, errors.StorageUnavailable("failed to fetch roster", err)
	}
	return users, nil
}
