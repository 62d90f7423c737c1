package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/internal/storage"
	"ischolar/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitApplicationRequest struct {
	ProgramCycleID  string  `json:"program_cycle_id" binding:"required"`
	Gwa             float64 `json:"gwa" binding:"required"`
	YearLevel       string  `json:"year_level" binding:"required"`
	Course          string  `json:"course" binding:"required"`
	Campus          string  `json:"campus" binding:"required"`
	HouseholdIncome string  `json:"household_income"`
}

type AttachFileRequest struct {
	RequirementID uuid.UUID
	FileName      string
	MimeType      string
	SizeBytes     int64
	File          io.Reader
}

type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_VERIFICATION FOR_CLARIFICATION APPROVED DENIED"`
}

type ApplicationFileResponse struct {
	ID            string `json:"id"`
	RequirementID string `json:"requirement_id"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
	SizeBytes     int64  `json:"size_bytes"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

type ApplicationResponse struct {
	ID          string                    `json:"id"`
	StudentID   string                    `json:"student_id"`
	StudentName string                    `json:"student_name,omitempty"`
	ProgramName string                    `json:"program_name,omitempty"`
	AyTerm      string                    `json:"ay_term,omitempty"`
	Status      string                    `json:"status"`
	Answers     model.ApplicationAnswers  `json:"answers"`
	SubmittedAt string                    `json:"submitted_at"`
	Score       *float64                  `json:"score,omitempty"`
	Files       []ApplicationFileResponse `json:"files,omitempty"`
}

type ApplicationFilter struct {
	Status string
	Page   int
	Limit  int
}

// --- Interface ---

/// ApplicationService owns the scholarship application lifecycle: one
// submission per (student, cycle), file attachments against requirements,
// and role-gated status transitions.
type ApplicationService interface {
	Submit(ctx context.Context, userID string, req SubmitApplicationRequest) (*ApplicationResponse, error)
	AttachFile(ctx context.Context, userID string, applicationID uuid.UUID, req AttachFileRequest) (*ApplicationFileResponse, error)
	ListMine(ctx context.Context, userID string) ([]ApplicationResponse, error)
	List(ctx context.Context, actorUserID string, filter ApplicationFilter) ([]ApplicationResponse, int64, error)
	TransitionStatus(ctx context.Context, actorUserID string, applicationID uuid.UUID, newStatus string) (*ApplicationResponse, error)
}

type applicationService struct {
	profiles     repository.ProfileRepository
	applications repository.ApplicationRepository
	cycles       repository.ProgramCycleRepository
	requirements repository.RequirementRepository
	audits       repository.AuditLogRepository
	notifier     NotificationService
	uploader     storage.Uploader
	txManager    repository.TransactionManager
}

func NewApplicationService(
	profiles repository.ProfileRepository,
	applications repository.ApplicationRepository,
	cycles repository.ProgramCycleRepository,
	requirements repository.RequirementRepository,
	audits repository.AuditLogRepository,
	notifier NotificationService,
	uploader storage.Uploader,
	txManager repository.TransactionManager,
) ApplicationService {
	return &applicationService{
		profiles:     profiles,
		applications: applications,
		cycles:       cycles,
		requirements: requirements,
		audits:       audits,
		notifier:     notifier,
		uploader:     uploader,
		txManager:    txManager,
	}
}

// statusRank orders application statuses; transitions may only move to a
// strictly higher rank.
var statusRank = map[string]int{
	model.AppStatusSubmitted:        0,
	model.AppStatusInVerification:   1,
	model.AppStatusForClarification: 2,
	model.AppStatusApproved:         2,
	model.AppStatusDenied:           2,
}

// --- Implementation ---

// Submit creates an Application with status SUBMITTED after the server-side
// eligibility check, and back-fills the profile's academic fields from the
// answers payload. The composite unique index turns a concurrent duplicate
// into a Conflict instead of a second row.
func (s *applicationService) Submit(ctx context.Context, userID string, req SubmitApplicationRequest) (*ApplicationResponse, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Not authenticated")
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Profile not found. Please complete your profile first", err)
	}

	cycleID, err := uuid.Parse(req.ProgramCycleID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid program cycle id")
	}
	cycle, err := s.cycles.GetByIDWithProgram(ctx, cycleID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Program cycle not found", err)
	}

	gwa := decimal.NewFromFloat(req.Gwa)
	if gwa.LessThanOrEqual(decimal.Zero) || gwa.GreaterThan(decimal.NewFromInt(5)) {
		return nil, apperr.New(apperr.KindValidation, "GWA must be between 1.00 and 5.00")
	}
	if cycle.Program.GwaCeiling != nil && gwa.GreaterThan(*cycle.Program.GwaCeiling) {
		return nil, apperr.Newf(apperr.KindValidation,
			"GWA must be %s or lower to qualify for %s",
			cycle.Program.GwaCeiling.StringFixed(2), cycle.Program.Name)
	}

	// Friendly pre-check; the unique index is the real race guard.
	if _, err := s.applications.GetByStudentAndCycle(ctx, profile.ID, cycle.ID); err == nil {
		return nil, apperr.New(apperr.KindConflict, "You have already submitted an application for this scholarship")
	}

	answers, err := json.Marshal(model.ApplicationAnswers{
		Gwa:             req.Gwa,
		YearLevel:       req.YearLevel,
		Course:          req.Course,
		Campus:          req.Campus,
		HouseholdIncome: req.HouseholdIncome,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to encode answers", err)
	}

	application := model.Application{
		StudentID:      profile.ID,
		ProgramCycleID: cycle.ID,
		Status:         model.AppStatusSubmitted,
		Answers:        string(answers),
		SubmittedAt:    time.Now(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.applications.Create(txCtx, &application); createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.KindConflict, "You have already submitted an application for this scholarship")
			}
			return apperr.Wrap(apperr.KindUnknown, "Failed to create application", createErr)
		}

		profile.Course = req.Course
		profile.Campus = req.Campus
		profile.YearLevel = req.YearLevel
		if updErr := s.profiles.Update(txCtx, profile); updErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to update profile", updErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Staff fan-out is best-effort: a failed notification insert must not
	// undo an accepted submission.
	appID := application.ID
	if _, notifyErr := s.notifier.NotifyStaff(ctx, NotifyParams{
		Title:     "New Application Submitted",
		Body:      fmt.Sprintf("%s %s has submitted a new scholarship application.", profile.FirstName, profile.LastName),
		Type:      model.NotifApplicationSubmitted,
		ActionURL: fmt.Sprintf("/admin/applications/%s", appID),
		RelatedID: &appID,
	}); notifyErr != nil {
		log.Printf("application fan-out failed for %s: %v", appID, notifyErr)
	}

	application.ProgramCycle = *cycle
	resp := toApplicationResponse(application)
	return &resp, nil
}

// AttachFile uploads a document against one Requirement of the caller's
// own application and records it with status PENDING.
func (s *applicationService) AttachFile(ctx context.Context, userID string, applicationID uuid.UUID, req AttachFileRequest) (*ApplicationFileResponse, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Not authenticated")
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Profile not found", err)
	}

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil || application.StudentID != profile.ID {
		return nil, apperr.New(apperr.KindNotFound, "Application not found")
	}

	requirement, err := s.requirements.GetByID(ctx, req.RequirementID)
	if err != nil || requirement.ProgramCycleID != application.ProgramCycleID {
		return nil, apperr.New(apperr.KindValidation, "Requirement does not belong to this program cycle")
	}

	allowed := false
	for _, mime := range requirement.MimeTypes {
		if mime == req.MimeType {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.Newf(apperr.KindValidation, "File type %s is not accepted for %s", req.MimeType, requirement.Label)
	}
	maxBytes := int64(requirement.MaxSizeMb) * 1024 * 1024
	if req.SizeBytes <= 0 || req.SizeBytes > maxBytes {
		return nil, apperr.Newf(apperr.KindValidation, "File size exceeds %dMB limit", requirement.MaxSizeMb)
	}

	path, err := s.uploader.Store(req.File, "applications", fmt.Sprintf("%s_%s_%s", application.ID, requirement.Code, req.FileName))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, "Failed to store the uploaded file", err)
	}

	file := model.ApplicationFile{
		ApplicationID: application.ID,
		RequirementID: requirement.ID,
		FileName:      req.FileName,
		Path:          path,
		MimeType:      req.MimeType,
		SizeBytes:     req.SizeBytes,
		Status:        model.FileStatusPending,
	}
	if err := s.applications.CreateFile(ctx, &file); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to save the file", err)
	}

	resp := toApplicationFileResponse(file)
	return &resp, nil
}

func (s *applicationService) ListMine(ctx context.Context, userID string) ([]ApplicationResponse, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Not authenticated")
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Profile not found", err)
	}

	applications, err := s.applications.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to load applications", err)
	}

	result := make([]ApplicationResponse, 0, len(applications))
	for _, app := range applications {
		result = append(result, toApplicationResponse(app))
	}
	return result, nil
}

func (s *applicationService) List(ctx context.Context, actorUserID string, filter ApplicationFilter) ([]ApplicationResponse, int64, error) {
	if _, err := s.requireStaff(ctx, actorUserID); err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	applications, total, err := s.applications.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindUnknown, "Failed to load applications", err)
	}

	result := make([]ApplicationResponse, 0, len(applications))
	for _, app := range applications {
		result = append(result, toApplicationResponse(app))
	}
	return result, total, nil
}

// TransitionStatus moves an application strictly forward through
// SUBMITTED -> IN_VERIFICATION -> {FOR_CLARIFICATION, APPROVED, DENIED}.
// Terminal decisions require ADMIN or APPROVER; a REVIEWER may move an
// application into IN_VERIFICATION or FOR_CLARIFICATION. Each transition
// audits the change and sends exactly one notification to the applicant.
func (s *applicationService) TransitionStatus(ctx context.Context, actorUserID string, applicationID uuid.UUID, newStatus string) (*ApplicationResponse, error) {
	actor, err := s.requireStaff(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	newRank, ok := statusRank[newStatus]
	if !ok || newStatus == model.AppStatusSubmitted {
		return nil, apperr.Newf(apperr.KindValidation, "Invalid application status %q", newStatus)
	}
	if newStatus == model.AppStatusApproved || newStatus == model.AppStatusDenied {
		if actor.Role != model.RoleAdmin && actor.Role != model.RoleApprover {
			return nil, apperr.New(apperr.KindForbidden, "Only approvers may make a final decision")
		}
	}

	application, err := s.applications.GetByIDWithRelations(ctx, applicationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "Application not found", err)
	}

	if newRank <= statusRank[application.Status] {
		return nil, apperr.Newf(apperr.KindConflict, "Cannot move application from %s to %s", application.Status, newStatus)
	}

	oldStatus := application.Status
	programName := application.ProgramCycle.Program.Name

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updErr := s.applications.UpdateStatus(txCtx, application.ID, newStatus); updErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to update application status", updErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"old_status": oldStatus,
			"new_status": newStatus,
			"program":    programName,
		})
		entry := model.AuditLog{
			ActorID: &actor.ID,
			Action:  model.ActionApplicationStatusChange,
			Subject: fmt.Sprintf("application:%s", application.ID),
			Details: string(details),
		}
		if auditErr := s.audits.Create(txCtx, &entry); auditErr != nil {
			return apperr.Wrap(apperr.KindUnknown, "Failed to write audit log", auditErr)
		}

		appID := application.ID
		params := statusNotification(newStatus, programName)
		params.ActionURL = "/status"
		params.RelatedID = &appID
		return s.notifier.Notify(txCtx, application.StudentID, params)
	})
	if err != nil {
		return nil, err
	}

	application.Status = newStatus
	resp := toApplicationResponse(*application)
	return &resp, nil
}

// --- Helpers ---

func (s *applicationService) requireStaff(ctx context.Context, actorUserID string) (*model.Profile, error) {
	if actorUserID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Not authenticated")
	}
	actor, err := s.profiles.GetByUserID(ctx, actorUserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Not authenticated", err)
	}
	if !model.IsStaffRole(actor.Role) {
		return nil, apperr.New(apperr.KindForbidden, "Only staff may perform this action")
	}
	return actor, nil
}

// statusNotification builds the per-status title/body the applicant sees
func statusNotification(status, programName string) NotifyParams {
	switch status {
	case model.AppStatusApproved:
		return NotifyParams{
			Title:    "Application Approved!",
			Body:     fmt.Sprintf("Congratulations! Your application for %s has been approved.", programName),
			Type:     model.NotifApplicationApproved,
			Priority: model.PriorityHigh,
		}
	case model.AppStatusDenied:
		return NotifyParams{
			Title:    "Application Denied",
			Body:     fmt.Sprintf("Your application for %s has been denied. Please check the details for more information.", programName),
			Type:     model.NotifApplicationDenied,
			Priority: model.PriorityHigh,
		}
	case model.AppStatusForClarification:
		return NotifyParams{
			Title:    "Clarification Required",
			Body:     fmt.Sprintf("Your application for %s requires additional information.", programName),
			Type:     model.NotifDocumentRequired,
			Priority: model.PriorityNormal,
		}
	default: // IN_VERIFICATION
		return NotifyParams{
			Title:    "Application Under Verification",
			Body:     fmt.Sprintf("Your application for %s is currently being verified.", programName),
			Type:     model.NotifVerificationPending,
			Priority: model.PriorityNormal,
		}
	}
}

func toApplicationFileResponse(file model.ApplicationFile) ApplicationFileResponse {
	return ApplicationFileResponse{
		ID:            file.ID.String(),
		RequirementID: file.RequirementID.String(),
		FileName:      file.FileName,
		MimeType:      file.MimeType,
		SizeBytes:     file.SizeBytes,
		Status:        file.Status,
		CreatedAt:     file.CreatedAt.Format(time.RFC3339),
	}
}

func toApplicationResponse(app model.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:          app.ID.String(),
		StudentID:   app.StudentID.String(),
		Status:      app.Status,
		SubmittedAt: app.SubmittedAt.Format(time.RFC3339),
		Score:       app.Score,
	}
	_ = json.Unmarshal([]byte(app.Answers), &resp.Answers)
	if app.Student != nil {
		resp.StudentName = fmt.Sprintf("%s %s", app.Student.FirstName, app.Student.LastName)
	}
	if app.ProgramCycle.Program.Name != "" {
		resp.ProgramName = app.ProgramCycle.Program.Name
		resp.AyTerm = app.ProgramCycle.AyTerm
	}
	for _, file := range app.Files {
		resp.Files = append(resp.Files, toApplicationFileResponse(file))
	}
	return resp
}
