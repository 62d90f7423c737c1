package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enum constants
const (
	RoleStudent  = "STUDENT"
	RoleReviewer = "REVIEWER"
	RoleApprover = "APPROVER"
	RoleAdmin    = "ADMIN"
)

// VerificationStatus enum constants for Profile
const (
	VerificationPending     = "PENDING_VERIFICATION"
	VerificationUnderReview = "UNDER_REVIEW"
	VerificationVerified    = "VERIFIED"
	VerificationRejected    = "REJECTED"
	VerificationSuspended   = "SUSPENDED"
)

// IsStaffRole reports whether the role bypasses the student verification requirement
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleReviewer || role == RoleApprover
}

// NeedsVerification reports whether the profile must still complete
// identity verification. Staff roles never do, regardless of the stored
// verification status.
func (p *Profile) NeedsVerification() bool {
	if IsStaffRole(p.Role) {
		return false
	}
	return p.VerificationStatus != VerificationVerified
}

// Profile is the portal's user record, distinct from the external auth identity.
// Exactly one Profile exists per external identity (UserID).
type Profile struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Email              string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName          string     `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName           string     `gorm:"type:varchar(100);not null" json:"last_name"`
	MiddleInitial      string     `gorm:"type:varchar(5)" json:"middle_initial,omitempty"`
	Password           string     `gorm:"type:varchar(255)" json:"-"` // bcrypt hash, empty for OAuth-only accounts
	Role               string     `gorm:"type:varchar(20);not null;default:'STUDENT';index" json:"role"`
	VerificationStatus string     `gorm:"type:varchar(30);not null;default:'PENDING_VERIFICATION';index" json:"verification_status"`
	StudentNumber      string     `gorm:"type:varchar(50)" json:"student_number,omitempty"`
	Campus             string     `gorm:"type:varchar(100)" json:"campus,omitempty"`
	Course             string     `gorm:"type:varchar(150)" json:"course,omitempty"`
	YearLevel          string     `gorm:"type:varchar(30)" json:"year_level,omitempty"`
	EmailVerifiedAt    *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// PendingUser holds unverified sign-up data until the email token is consumed.
// At most one row per email; a fresh sign-up attempt reissues the token.
type PendingUser struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password          string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName         string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName          string    `gorm:"type:varchar(100);not null" json:"last_name"`
	MiddleInitial     string    `gorm:"type:varchar(5)" json:"middle_initial,omitempty"`
	VerificationToken string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	TokenExpiry       time.Time `gorm:"not null" json:"token_expiry"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"profile_id"`
	Profile   Profile   `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
