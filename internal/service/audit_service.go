package service

import (
	"context"
	"time"

	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/pkg/apperr"
)

// --- DTOs ---

type AuditLogResponse struct {
	ID        string  `json:"id"`
	ActorID   *string `json:"actor_id,omitempty"`
	ActorName string  `json:"actor_name,omitempty"`
	Action    string  `json:"action"`
	Subject   string  `json:"subject"`
	Details   string  `json:"details"`
	CreatedAt string  `json:"created_at"`
}

// AuditService is the read surface over the append-only audit trail
type AuditService interface {
	List(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	audits repository.AuditLogRepository
}

func NewAuditService(audits repository.AuditLogRepository) AuditService {
	return &auditService{audits: audits}
}

func (s *auditService) List(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	entries, total, err := s.audits.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindUnknown, "Failed to load audit log", err)
	}

	result := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toAuditResponse(entry))
	}
	return result, total, nil
}

func toAuditResponse(entry model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:        entry.ID.String(),
		Action:    entry.Action,
		Subject:   entry.Subject,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.ActorID != nil {
		id := entry.ActorID.String()
		resp.ActorID = &id
	}
	if entry.Actor != nil {
		resp.ActorName = entry.Actor.FirstName + " " + entry.Actor.LastName
	}
	return resp
}
