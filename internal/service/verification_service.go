package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/internal/storage"
	"ischolar/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type UploadDocumentRequest struct {
	DocType   string
	FileName  string
	MimeType  string
	SizeBytes int64
	File      io.Reader
}

type ReviewDocumentRequest struct {
	Status          string `json:"status" binding:"required,oneof=VALID INVALID"`
	RejectionReason string `json:"rejection_reason"`
}

type UpdateVerificationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=VERIFIED REJECTED SUSPENDED"`
}

type VerificationDocumentResponse struct {
	ID              string  `json:"id"`
	DocType         string  `json:"doc_type"`
	FileName        string  `json:"file_name"`
	MimeType        string  `json:"mime_type"`
	SizeBytes       int64   `json:"size_bytes"`
	Status          string  `json:"status"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	ReviewedBy      *string `json:"reviewed_by,omitempty"`
	ReviewedAt      *string `json:"reviewed_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type VerificationStatusResponse struct {
	ProfileID          string                         `json:"profile_id"`
	VerificationStatus string                         `json:"verification_status"`
	NeedsVerification  bool                           `json:"needs_verification"`
	Documents          []VerificationDocumentResponse `json:"documents"`
}

type VerificationRequestResponse struct {
	Profile   ProfileResponse                `json:"profile"`
	Documents []VerificationDocumentResponse `json:"documents"`
}

// Upload limits per document type. ID photos get the tighter cap.
const (
	maxDocSizeBytes     = 5 * 1024 * 1024
	maxIDPhotoSizeBytes = 3 * 1024 * 1024
)

var allowedDocMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

var validDocTypes = map[string]bool{
	model.DocTypeStudentID:         true,
	model.DocTypeProofOfEnrollment: true,
	model.DocTypeGovernmentID:      true,
}

// --- Interface ---

// VerificationService drives a Profile through the verification states and
// owns reviewer decisions over identity documents.
type VerificationService interface {
	GetStatus(ctx context.Context, userID string) (*VerificationStatusResponse, error)
	UploadDocument(ctx context.Context, userID string, req UploadDocumentRequest) (*VerificationDocumentResponse, error)
	ListRequests(ctx context.Context, actorUserID string, page, limit int) ([]VerificationRequestResponse, int64, error)
	ReviewDocument(ctx context.Context, actorUserID string, documentID uuid.UUID, req ReviewDocumentRequest) (*VerificationDocumentResponse, error)
	UpdateProfileStatus(ctx context.Context, actorUserID string, profileID uuid.UUID, status string) error
}

type verificationService struct {
	profiles  repository.ProfileRepository
	documents repository.VerificationDocumentRepository
	audits    repository.AuditLogRepository
	notifier  NotificationService
	uploader  storage.Uploader
	txManager repository.TransactionManager
}

func NewVerificationService(
	profiles repository.ProfileRepository,
	documents repository.VerificationDocumentRepository,
	audits repository.AuditLogRepository,
	notifier NotificationService,
	uploader storage.Uploader,
	txManager repository.TransactionManager,
) VerificationService {
	return &verificationService{
		profiles:  profiles,
		documents: documents,
		audits:    audits,
		notifier:  notifier,
		uploader:  uploader,
		txManager: txManager,
	}
}

// --- Implementation ---

func (s *verificationService) GetStatus(ctx context.Context, userID string) (*VerificationStatusResponse, error) {
	profile, err := s.resolveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	docs, err := s.documents.ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to load verification documents", err)
	}

	resp := &VerificationStatusResponse{
		ProfileID:          profile.ID.String(),
		VerificationStatus: profile.VerificationStatus,
		NeedsVerification:  profile.NeedsVerification(),
		Documents:          make([]VerificationDocumentResponse, 0, len(docs)),
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}
	return resp, nil
}

// UploadDocument stores an identity document for the calling profile. The
// first upload while the profile is PENDING_VERIFICATION or REJECTED moves
// it to UNDER_REVIEW and fans a notification out to staff reviewers.
func (s *verificationService) UploadDocument(ctx context.Context, userID string, req UploadDocumentRequest) (*VerificationDocumentResponse, error) {
	profile, err := s.resolveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !validDocTypes[req.DocType] {
		return nil, apperr.Newf(apperr.KindValidation, "Unknown document type %q", req.DocType)
	}
	if !allowedDocMimeTypes[req.MimeType] {
		return nil, apperr.New(apperr.KindValidation, "Invalid file type. Only JPEG, PNG, and PDF files are allowed")
	}
	limit := int64(maxDocSizeBytes)
	if req.DocType == model.DocTypeStudentID || req.DocType == model.DocTypeGovernmentID {
		limit = maxIDPhotoSizeBytes
	}
	if req.SizeBytes <= 0 || req.SizeBytes > limit {
		return nil, apperr.Newf(apperr.KindValidation, "File size exceeds %dMB limit", limit/(1024*1024))
	}

	path, err := s.uploader.Store(req.File, "verification", fmt.Sprintf("%s_%s_%s", profile.ID, req.DocType, req.FileName))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, "Failed to store the uploaded file", err)
	}

	doc := model.VerificationDocument{
		ProfileID: profile.ID,
		DocType:   req.DocType,
		FileName:  req.FileName,
		Path:      path,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
		Status:    model.FileStatusPending,
	}

	transitioned := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.documents.Create(txCtx, &doc); createErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to save the document", createErr)
		}

		// A REJECTED profile re-enters review on a fresh upload, same as
		// the initial PENDING_VERIFICATION transition.
		if profile.VerificationStatus == model.VerificationPending ||
			profile.VerificationStatus == model.VerificationRejected {
			if updErr := s.profiles.UpdateVerificationStatus(txCtx, profile.ID, model.VerificationUnderReview); updErr != nil {
				return apperr.Wrap(apperr.KindUnknown, "Failed to update verification status", updErr)
			}
			transitioned = true

			docID := doc.ID
			if _, notifyErr := s.notifier.NotifyRoles(txCtx,
				[]string{model.RoleAdmin, model.RoleReviewer},
				NotifyParams{
					Title:     "New Verification Submission",
					Body:      fmt.Sprintf("%s %s has submitted verification documents for review.", profile.FirstName, profile.LastName),
					Type:      model.NotifVerificationSubmitted,
					ActionURL: "/admin/verifications",
					RelatedID: &docID,
				}); notifyErr != nil {
				return notifyErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		profile.VerificationStatus = model.VerificationUnderReview
	}
	resp := toDocumentResponse(doc)
	return &resp, nil
}

// ListRequests returns profiles awaiting a verification decision, newest
// first, with their documents. Staff only.
func (s *verificationService) ListRequests(ctx context.Context, actorUserID string, page, limit int) ([]VerificationRequestResponse, int64, error) {
	if _, err := s.requireReviewer(ctx, actorUserID); err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	profiles, total, err := s.profiles.ListByVerificationStatus(ctx,
		[]string{model.VerificationUnderReview, model.VerificationRejected}, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindUnknown, "Failed to load verification requests", err)
	}

	result := make([]VerificationRequestResponse, 0, len(profiles))
	for _, profile := range profiles {
		docs, docErr := s.documents.ListByProfile(ctx, profile.ID)
		if docErr != nil {
			return nil, 0, apperr.Wrap(apperr.KindUnknown, "Failed to load verification documents", docErr)
		}
		entry := VerificationRequestResponse{
			Profile:   toProfileResponse(&profile),
			Documents: make([]VerificationDocumentResponse, 0, len(docs)),
		}
		for _, doc := range docs {
			entry.Documents = append(entry.Documents, toDocumentResponse(doc))
		}
		result = append(result, entry)
	}
	return result, total, nil
}

// ReviewDocument records a document-level decision. It never moves the
// owning profile's state; that is a separate operation.
func (s *verificationService) ReviewDocument(ctx context.Context, actorUserID string, documentID uuid.UUID, req ReviewDocumentRequest) (*VerificationDocumentResponse, error) {
	reviewer, err := s.requireReviewer(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	if req.Status != model.FileStatusValid && req.Status != model.FileStatusInvalid {
		return nil, apperr.New(apperr.KindValidation, "Document status must be VALID or INVALID")
	}
	if req.Status == model.FileStatusInvalid && req.RejectionReason == "" {
		return nil, apperr.New(apperr.KindValidation, "A rejection reason is required when marking a document INVALID")
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Verification document not found", err)
	}

	now := time.Now()
	doc.Status = req.Status
	doc.RejectionReason = req.RejectionReason
	doc.ReviewedBy = &reviewer.ID
	doc.ReviewedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updErr := s.documents.Update(txCtx, doc); updErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to update the document", updErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"doc_type": doc.DocType,
			"status":   req.Status,
			"reason":   req.RejectionReason,
		})
		entry := model.AuditLog{
			ActorID: &reviewer.ID,
			Action:  model.ActionDocumentReview,
			Subject: fmt.Sprintf("verification_document:%s", doc.ID),
			Details: string(details),
		}
		if auditErr := s.audits.Create(txCtx, &entry); auditErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to write audit log", auditErr)
		}

		params := NotifyParams{
			Type:      model.NotifVerificationApproved,
			Priority:  model.PriorityHigh,
			ActionURL: "/verify-account",
			Title:     "Document Verified",
			Body:      fmt.Sprintf("Your %s has been verified successfully.", doc.DocType),
		}
		if req.Status == model.FileStatusInvalid {
			params.Type = model.NotifVerificationRejected
			params.Title = "Document Rejected"
			params.Body = fmt.Sprintf("Your %s was rejected. Reason: %s", doc.DocType, req.RejectionReason)
		}
		return s.notifier.Notify(txCtx, doc.ProfileID, params)
	})
	if err != nil {
		return nil, err
	}

	resp := toDocumentResponse(*doc)
	return &resp, nil
}

// UpdateProfileStatus is the staff decision over the whole profile:
// UNDER_REVIEW (or REJECTED, for re-decisions) to VERIFIED, REJECTED or
// SUSPENDED. Writes an audit row and sends exactly one notification to
// the affected profile, all in one transaction.
func (s *verificationService) UpdateProfileStatus(ctx context.Context, actorUserID string, profileID uuid.UUID, status string) error {
	reviewer, err := s.requireReviewer(ctx, actorUserID)
	if err != nil {
		return err
	}

	if status != model.VerificationVerified &&
		status != model.VerificationRejected &&
		status != model.VerificationSuspended {
		return apperr.Newf(apperr.KindValidation, "Invalid verification status %q", status)
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return apperr.Wrap(apperr.KindNotFound, "Profile not found", err)
	}

	if profile.VerificationStatus != model.VerificationUnderReview &&
		profile.VerificationStatus != model.VerificationRejected {
		return apperr.Newf(apperr.KindConflict, "Profile is not awaiting a verification decision (current status: %s)", profile.VerificationStatus)
	}

	oldStatus := profile.VerificationStatus

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updErr := s.profiles.UpdateVerificationStatus(txCtx, profile.ID, status); updErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to update verification status", updErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"old_status": oldStatus,
			"new_status": status,
		})
		entry := model.AuditLog{
			ActorID: &reviewer.ID,
			Action:  model.ActionVerificationStatusChange,
			Subject: fmt.Sprintf("profile:%s", profile.ID),
			Details: string(details),
		}
		if auditErr := s.audits.Create(txCtx, &entry); auditErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to write audit log", auditErr)
		}

		body := "Your verification was rejected. Please check your documents and resubmit."
		if status == model.VerificationVerified {
			body = "Your account has been verified! You can now apply for scholarships."
		} else if status == model.VerificationSuspended {
			body = "Your account has been suspended. Please contact the scholarship office."
		}
		return s.notifier.Notify(txCtx, profile.ID, NotifyParams{
			Title:     fmt.Sprintf("Account %s", status),
			Body:      body,
			Type:      model.NotifVerificationUpdate,
			Priority:  model.PriorityHigh,
			ActionURL: "/verify-account",
		})
	})
}

// --- Helpers ---

func (s *verificationService) resolveProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Not authenticated")
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.KindNotFound, "Profile not found")
		}
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to resolve profile", err)
	}
	return profile, nil
}

// requireReviewer resolves the actor and enforces the ADMIN/REVIEWER gate
// shared by every mutating verification operation.
func (s *verificationService) requireReviewer(ctx context.Context, actorUserID string) (*model.Profile, error) {
	actor, err := s.resolveProfile(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleReviewer {
		return nil, apperr.New(apperr.KindForbidden, "Only reviewers may perform this action")
	}
	return actor, nil
}

func toDocumentResponse(doc model.VerificationDocument) VerificationDocumentResponse {
	resp := VerificationDocumentResponse{
		ID:              doc.ID.String(),
		DocType:         doc.DocType,
		FileName:        doc.FileName,
		MimeType:        doc.MimeType,
		SizeBytes:       doc.SizeBytes,
		Status:          doc.Status,
		RejectionReason: doc.RejectionReason,
		CreatedAt:       doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.ReviewedBy != nil {
		id := doc.ReviewedBy.String()
		resp.ReviewedBy = &id
	}
	if doc.ReviewedAt != nil {
		at := doc.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}
