package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type enum constants
const (
	NotifApplicationSubmitted  = "APPLICATION_SUBMITTED"
	NotifApplicationApproved   = "APPLICATION_APPROVED"
	NotifApplicationDenied     = "APPLICATION_DENIED"
	NotifVerificationSubmitted = "VERIFICATION_SUBMITTED"
	NotifVerificationPending   = "VERIFICATION_PENDING"
	NotifVerificationApproved  = "VERIFICATION_APPROVED"
	NotifVerificationRejected  = "VERIFICATION_REJECTED"
	NotifVerificationUpdate    = "VERIFICATION_UPDATE"
	NotifDocumentRequired      = "DOCUMENT_REQUIRED"
	NotifThresholdWarning      = "THRESHOLD_WARNING"
	NotifSystemAlert           = "SYSTEM_ALERT"
	NotifReminder              = "REMINDER"
)

// Notification priority enum constants
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Notification is a message addressed to exactly one Profile.
// Immutable once created except the IsRead flag, which only the
// owning recipient may flip.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProfileID uuid.UUID  `gorm:"type:uuid;not null;index" json:"profile_id"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body,omitempty"`
	Type      string     `gorm:"type:varchar(40);not null" json:"type"`
	Priority  string     `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"priority"`
	ActionURL string     `gorm:"type:varchar(500)" json:"action_url,omitempty"`
	RelatedID *uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`
	IsRead    bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
