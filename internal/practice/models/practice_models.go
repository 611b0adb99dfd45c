package models

import (
	"time"

	"gorm.io/datatypes"
)

// RecordType distinguishes a normal practice pass from a review of earlier mistakes.
type RecordType string

const (
	RecordTypePractice      RecordType = "practice"
	RecordTypeMistakeReview RecordType = "mistake_review"
)

// Role of a directory user. Only students appear in assignment rosters.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// PracticeRecord is one finished practice session. Rows are append-only.
// ID is the arrival sequence and breaks ties between equal CompletedAt values.
type PracticeRecord struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	RecordID     string     `gorm:"size:36;uniqueIndex;not null" json:"record_id"`
	SessionID    string     `gorm:"size:128;uniqueIndex;not null" json:"session_id"`
	AssignmentID string     `gorm:"size:64;not null;index:idx_records_assignment_score,priority:1" json:"assignment_id"`
	UserID       string     `gorm:"size:64;not null;index" json:"user_id"`
	Score        int        `gorm:"not null;index:idx_records_assignment_score,priority:2" json:"score"`
	TotalItems   int        `gorm:"not null" json:"total_items"`
	CorrectItems int        `gorm:"not null" json:"correct_items"`
	DurationMs   int64      `gorm:"not null" json:"duration_ms"`
	RecordType   RecordType `gorm:"size:32;not null;default:practice" json:"record_type"`
	CompletedAt  time.Time  `gorm:"not null;index" json:"completed_at"`
}

// User is a directory entry. Profile fields are owned elsewhere; the core
// only reads them to decorate summaries and build rosters.
type User struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string    `gorm:"size:128" json:"display_name"`
	AvatarRef   string    `gorm:"size:512" json:"avatar_ref"`
	Sign        string    `gorm:"size:256" json:"sign,omitempty"`
	Role        Role      `gorm:"size:16;not null;default:student;index" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Assignment is a teacher-authored word list.
type Assignment struct {
	ID        string                      `gorm:"primaryKey;size:64" json:"id"`
	Title     string                      `gorm:"size:256;not null" json:"title"`
	Words     datatypes.JSONSlice[string] `json:"words"`
	CreatedBy string                      `gorm:"size:64" json:"created_by,omitempty"`
	CreatedAt time.Time                   `gorm:"index" json:"created_at"`
}

// RecordFilter narrows RecordStore reads. Zero values mean "no constraint",
// except UserIDs: a non-nil empty list matches nothing.
type RecordFilter struct {
	AssignmentID string
	UserID       string
	UserIDs      []string
	Since        *time.Time
	MaxScore     *int
}

// SubmitRecordRequest is the ingestion payload. CompletedAt is never accepted
// from the client.
type SubmitRecordRequest struct {
	AssignmentID string     `json:"assignment_id" binding:"required" validate:"required,max=64"`
	UserID       string     `json:"user_id" binding:"required" validate:"required,max=64"`
	SessionID    string     `json:"session_id" binding:"required" validate:"required,max=128"`
	Score        int        `json:"score" validate:"min=0,max=100"`
	TotalItems   int        `json:"total_items" validate:"min=0"`
	CorrectItems int        `json:"correct_items" validate:"min=0,ltefield=TotalItems"`
	DurationMs   int64      `json:"duration_ms" validate:"min=0"`
	RecordType   RecordType `json:"record_type" validate:"recordtype"`
}

// SubmitResult is what submitRecord reports back.
type SubmitResult struct {
	OK        bool   `json:"ok"`
	RecordID  string `json:"record_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
	Error     string `json:"error,omitempty"`
}

type CreateAssignmentRequest struct {
	ID        string   `json:"id" validate:"required,max=64"`
	Title     string   `json:"title" binding:"required" validate:"required,max=256"`
	Words     []string `json:"words" validate:"dive,required"`
	CreatedBy string   `json:"created_by" validate:"max=64"`
}

type UpsertUserRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"max=128"`
	AvatarRef   string `json:"avatar_ref" validate:"max=512"`
	Sign        string `json:"sign" validate:"max=256"`
	Role        Role   `json:"role" validate:"omitempty,oneof=student teacher"`
}

// AssignmentPage is the paginated assignment listing.
type AssignmentPage struct {
	Items     []Assignment `json:"items"`
	Count     int          `json:"count"`
	HasMore   bool         `json:"has_more"`
	Timestamp time.Time    `json:"timestamp"`
}
