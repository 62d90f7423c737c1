package repository

import (
	"context"

	"ischolar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository defines data access for Notification rows
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	CreateBatch(ctx context.Context, notifications []model.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListByRecipient(ctx context.Context, profileID uuid.UUID, limit int, unreadOnly bool) ([]model.Notification, error)
	CountUnread(ctx context.Context, profileID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, profileID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return GetDB(ctx, r.db).Create(notification).Error
}

// CreateBatch inserts a fan-out batch in a single statement so partial
// delivery cannot happen.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&notifications).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var notification model.Notification
	if err := GetDB(ctx, r.db).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByRecipient returns unread notifications before read ones, newest
// first within each group. The UI relies on this exact ordering.
func (r *notificationRepository) ListByRecipient(ctx context.Context, profileID uuid.UUID, limit int, unreadOnly bool) ([]model.Notification, error) {
	var notifications []model.Notification
	query := GetDB(ctx, r.db).Where("profile_id = ?", profileID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if err := query.
		Order("is_read ASC").
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("profile_id = ? AND is_read = ?", profileID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips the flag only if the row belongs to profileID; the
// returned count tells the caller whether anything matched.
func (r *notificationRepository) MarkRead(ctx context.Context, id, profileID uuid.UUID) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND profile_id = ?", id, profileID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("profile_id = ? AND is_read = ?", profileID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
