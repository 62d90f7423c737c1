package model

import (
	"time"

	"github.com/google/uuid"
)

// VerificationDocument docType enum constants
const (
	DocTypeStudentID         = "STUDENT_ID"
	DocTypeProofOfEnrollment = "PROOF_OF_ENROLLMENT"
	DocTypeGovernmentID      = "GOVERNMENT_ID"
)

// VerificationDocument proves a student profile's identity/enrollment.
// Distinct from ApplicationFile; reused across applications once the
// owning profile is VERIFIED. Never deleted.
type VerificationDocument struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProfileID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"profile_id"`
	Profile         *Profile   `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
	DocType         string     `gorm:"type:varchar(30);not null" json:"doc_type"`
	FileName        string     `gorm:"type:varchar(255);not null" json:"file_name"`
	Path            string     `gorm:"type:varchar(500);not null" json:"path"`
	MimeType        string     `gorm:"type:varchar(100);not null" json:"mime_type"`
	SizeBytes       int64      `gorm:"not null" json:"size_bytes"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	Reviewer        *Profile   `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}
