// Package repository provides data access for practice records, the user
// directory and assignments.
package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/jgirmay/vocab-practice/internal/practice/models"
)

// Registry provides centralized access to all repositories
type Registry struct {
	Records     *RecordStoreImpl
	Users       UserRepository
	Assignments AssignmentRepository

	db *gorm.DB
}

// NewRegistry creates a new repository registry
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		Records:     NewRecordStore(db),
		Users:       NewUserRepository(db),
		Assignments: NewAssignmentRepository(db),
		db:          db,
	}
}

// AutoMigrate creates or updates the practice tables
func (r *Registry) AutoMigrate() error {
	if err := r.db.AutoMigrate(
		&models.PracticeRecord{},
		&models.User{},
		&models.Assignment{},
	); err != nil {
		return fmt.Errorf("failed to migrate practice tables: %w", err)
	}
	return nil
}

// GetDB returns the database connection
func (r *Registry) GetDB() *gorm.DB {
	return r.db
}
