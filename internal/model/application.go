package model

import (
	"time"

	"github.com/google/uuid"
)

// Application status enum constants
const (
	AppStatusSubmitted        = "SUBMITTED"
	AppStatusInVerification   = "IN_VERIFICATION"
	AppStatusForClarification = "FOR_CLARIFICATION"
	AppStatusApproved         = "APPROVED"
	AppStatusDenied           = "DENIED"
)

// File status enum constants (shared by ApplicationFile and VerificationDocument)
const (
	FileStatusPending = "PENDING"
	FileStatusValid   = "VALID"
	FileStatusInvalid = "INVALID"
)

// Application is a student's submission against one ProgramCycle.
// The composite unique index on (student_id, program_cycle_id) is the
// authoritative guard against duplicate submissions under concurrency.
type Application struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StudentID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_student_cycle,priority:1" json:"student_id"`
	Student        *Profile          `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	ProgramCycleID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_student_cycle,priority:2" json:"program_cycle_id"`
	ProgramCycle   ProgramCycle      `gorm:"foreignKey:ProgramCycleID" json:"program_cycle"`
	Status         string            `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	Answers        string            `gorm:"type:jsonb;not null" json:"answers"` // snapshot of the submission payload, immutable after create
	SubmittedAt    time.Time         `gorm:"not null" json:"submitted_at"`
	Score          *float64          `json:"score,omitempty"`
	Files          []ApplicationFile `gorm:"foreignKey:ApplicationID" json:"files,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ApplicationAnswers is the shape of the Answers jsonb payload
type ApplicationAnswers struct {
	Gwa             float64 `json:"gwa"`
	YearLevel       string  `json:"year_level"`
	Course          string  `json:"course"`
	Campus          string  `json:"campus"`
	HouseholdIncome string  `json:"household_income,omitempty"`
}

// ApplicationFile is a document uploaded against a Requirement for one Application
type ApplicationFile struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`
	RequirementID uuid.UUID `gorm:"type:uuid;not null;index" json:"requirement_id"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"file_name"`
	Path          string    `gorm:"type:varchar(500);not null" json:"path"`
	MimeType      string    `gorm:"type:varchar(100);not null" json:"mime_type"`
	SizeBytes     int64     `gorm:"not null" json:"size_bytes"`
	Status        string    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
