package service

import (
	"context"
	"encoding/json"
	"time"

	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

// NotifyParams describes one logical notification event. Callers are
// responsible for not dispatching the same event twice.
type NotifyParams struct {
	Title     string
	Body      string
	Type      string
	Priority  string
	ActionURL string
	RelatedID *uuid.UUID
}

type NotificationResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body,omitempty"`
	Type      string  `json:"type"`
	Priority  string  `json:"priority"`
	ActionURL string  `json:"action_url,omitempty"`
	RelatedID *string `json:"related_id,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

// --- Interface ---

// NotificationService is the dispatcher: it creates notification rows for
// one or many recipients and owns the read-state operations.
type NotificationService interface {
	Notify(ctx context.Context, recipientID uuid.UUID, params NotifyParams) error
	NotifyRoles(ctx context.Context, roles []string, params NotifyParams) (int, error)
	NotifyStaff(ctx context.Context, params NotifyParams) (int, error)
	List(ctx context.Context, recipientID uuid.UUID, limit int, unreadOnly bool) ([]NotificationResponse, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, notificationID, ownerID uuid.UUID) error
	MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	hub           interface{ GetBroadcast() chan []byte } // optional websocket hub
}

// NewNotificationService returns a dispatcher without real-time push
func NewNotificationService(notifications repository.NotificationRepository, profiles repository.ProfileRepository) NotificationService {
	return &notificationService{notifications: notifications, profiles: profiles}
}

// NewNotificationServiceWithHub returns a dispatcher that also pushes
// created notifications to the websocket hub, best-effort.
func NewNotificationServiceWithHub(
	notifications repository.NotificationRepository,
	profiles repository.ProfileRepository,
	hub interface{ GetBroadcast() chan []byte },
) NotificationService {
	return &notificationService{notifications: notifications, profiles: profiles, hub: hub}
}

// --- Implementation ---

func (s *notificationService) Notify(ctx context.Context, recipientID uuid.UUID, params NotifyParams) error {
	notification := buildNotification(recipientID, params)
	if err := s.notifications.Create(ctx, &notification); err != nil {
		return apperr.Wrap(apperr.KindUnknown, "Failed to create notification", err)
	}
	s.push(notification)
	return nil
}

// NotifyRoles fans one template out to every profile holding any of the
// given roles. The batch insert is a single statement, so either every
// recipient gets a row or none do.
func (s *notificationService) NotifyRoles(ctx context.Context, roles []string, params NotifyParams) (int, error) {
	recipients, err := s.profiles.ListByRoles(ctx, roles)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnknown, "Failed to resolve notification recipients", err)
	}

	notifications := make([]model.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		notifications = append(notifications, buildNotification(recipient.ID, params))
	}

	if err := s.notifications.CreateBatch(ctx, notifications); err != nil {
		return 0, apperr.Wrap(apperr.KindUnknown, "Failed to create notifications", err)
	}

	for _, n := range notifications {
		s.push(n)
	}
	return len(notifications), nil
}

func (s *notificationService) NotifyStaff(ctx context.Context, params NotifyParams) (int, error) {
	return s.NotifyRoles(ctx, []string{model.RoleAdmin, model.RoleReviewer, model.RoleApprover}, params)
}

func (s *notificationService) List(ctx context.Context, recipientID uuid.UUID, limit int, unreadOnly bool) ([]NotificationResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	notifications, err := s.notifications.ListByRecipient(ctx, recipientID, limit, unreadOnly)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to fetch notifications", err)
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, toNotificationResponse(n))
	}
	return result, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnknown, "Failed to count notifications", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, ownerID uuid.UUID) error {
	affected, err := s.notifications.MarkRead(ctx, notificationID, ownerID)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, "Failed to mark notification as read", err)
	}
	if affected == 0 {
		return apperr.New(apperr.KindNotFound, "Notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	affected, err := s.notifications.MarkAllRead(ctx, ownerID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnknown, "Failed to mark notifications as read", err)
	}
	return affected, nil
}

// --- Helpers ---

func buildNotification(recipientID uuid.UUID, params NotifyParams) model.Notification {
	priority := params.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	return model.Notification{
		ProfileID: recipientID,
		Title:     params.Title,
		Body:      params.Body,
		Type:      params.Type,
		Priority:  priority,
		ActionURL: params.ActionURL,
		RelatedID: params.RelatedID,
	}
}

// push forwards the notification to connected websocket clients without
// ever blocking the request path.
func (s *notificationService) push(notification model.Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event":        "notification",
		"notification": toNotificationResponse(notification),
	})
	if err != nil {
		return
	}
	select {
	case s.hub.GetBroadcast() <- payload:
	default:
	}
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Title:     n.Title,
		Body:      n.Body,
		Type:      n.Type,
		Priority:  n.Priority,
		ActionURL: n.ActionURL,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.RelatedID != nil {
		id := n.RelatedID.String()
		resp.RelatedID = &id
	}
	return resp
}
