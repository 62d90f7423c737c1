package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionVerificationStatusChange = "VERIFICATION_STATUS_CHANGE"
	ActionDocumentReview           = "DOCUMENT_REVIEW"
	ActionApplicationStatusChange  = "APPLICATION_STATUS_CHANGE"
	ActionStaffAutoVerify          = "STAFF_AUTO_VERIFY"
	ActionCheckThresholds          = "CHECK_THRESHOLDS"
)

// AuditLog tracks Who, What, and When for privileged state changes.
// Append-only: rows are never mutated or deleted.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"` // nullable for system-triggered actions
	Actor     *Profile   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Subject   string     `gorm:"type:varchar(100);index" json:"subject"` // e.g. "profile:<id>", "application:<id>"
	Details   string     `gorm:"type:jsonb" json:"details"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
