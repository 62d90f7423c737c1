package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/pkg/apperr"

	"gorm.io/gorm"
)

// --- DTOs ---

type UpdateProfileRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleInitial string `json:"middle_initial"`
	StudentNumber string `json:"student_number"`
	Campus        string `json:"campus"`
	Course        string `json:"course"`
	YearLevel     string `json:"year_level"`
}

type ProfileResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	MiddleInitial      string `json:"middle_initial,omitempty"`
	Role               string `json:"role"`
	VerificationStatus string `json:"verification_status"`
	NeedsVerification  bool   `json:"needs_verification"`
	StudentNumber      string `json:"student_number,omitempty"`
	Campus             string `json:"campus,omitempty"`
	Course             string `json:"course,omitempty"`
	YearLevel          string `json:"year_level,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// --- Interface ---

// ProfileService resolves authenticated principals to profiles and owns
// self-service profile edits plus the staff auto-verify reconciliation.
type ProfileService interface {
	GetByUserID(ctx context.Context, userID string) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*ProfileResponse, error)
	AutoVerifyStaffAccount(ctx context.Context, userID string) error
}

type profileService struct {
	profiles repository.ProfileRepository
	audits   repository.AuditLogRepository
}

func NewProfileService(profiles repository.ProfileRepository, audits repository.AuditLogRepository) ProfileService {
	return &profileService{profiles: profiles, audits: audits}
}

// --- Implementation ---

func (s *profileService) GetByUserID(ctx context.Context, userID string) (*ProfileResponse, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.KindNotFound, "Profile not found")
		}
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to load profile", err)
	}
	resp := toProfileResponse(profile)
	return &resp, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*ProfileResponse, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Profile not found", err)
	}

	if req.FirstName != "" {
		profile.FirstName = req.FirstName
	}
	if req.LastName != "" {
		profile.LastName = req.LastName
	}
	if req.MiddleInitial != "" {
		profile.MiddleInitial = req.MiddleInitial
	}
	if req.StudentNumber != "" {
		profile.StudentNumber = req.StudentNumber
	}
	if req.Campus != "" {
		profile.Campus = req.Campus
	}
	if req.Course != "" {
		profile.Course = req.Course
	}
	if req.YearLevel != "" {
		profile.YearLevel = req.YearLevel
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to update profile", err)
	}

	resp := toProfileResponse(profile)
	return &resp, nil
}

// AutoVerifyStaffAccount reconciles staff profiles stuck in a student
// verification state: ADMIN/REVIEWER/APPROVER accounts are set straight to
// VERIFIED if found in any other status.
func (s *profileService) AutoVerifyStaffAccount(ctx context.Context, userID string) error {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return apperr.Wrap(apperr.KindUnknown, "Failed to load profile", err)
	}

	if !model.IsStaffRole(profile.Role) || profile.VerificationStatus == model.VerificationVerified {
		return nil
	}

	if err := s.profiles.UpdateVerificationStatus(ctx, profile.ID, model.VerificationVerified); err != nil {
		return apperr.Wrap(apperr.KindUnknown, "Failed to update verification status", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"role":       profile.Role,
		"old_status": profile.VerificationStatus,
	})
	entry := model.AuditLog{
		Action:  model.ActionStaffAutoVerify,
		Subject: "profile:" + profile.ID.String(),
		Details: string(details),
	}
	if err := s.audits.Create(ctx, &entry); err != nil {
		log.Printf("failed to write auto-verify audit log: %v", err)
	}
	return nil
}

// --- Helpers ---

func toProfileResponse(profile *model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                 profile.ID.String(),
		Email:              profile.Email,
		FirstName:          profile.FirstName,
		LastName:           profile.LastName,
		MiddleInitial:      profile.MiddleInitial,
		Role:               profile.Role,
		VerificationStatus: profile.VerificationStatus,
		NeedsVerification:  profile.NeedsVerification(),
		StudentNumber:      profile.StudentNumber,
		Campus:             profile.Campus,
		Course:             profile.Course,
		YearLevel:          profile.YearLevel,
		CreatedAt:          profile.CreatedAt.Format(time.RFC3339),
	}
}
