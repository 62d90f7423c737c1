package repository

import (
	"context"

	"ischolar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingUserRepository handles ephemeral pre-account records awaiting
// email confirmation.
type PendingUserRepository interface {
	Upsert(ctx context.Context, pending *model.PendingUser) error
	GetByEmail(ctx context.Context, email string) (*model.PendingUser, error)
	GetByToken(ctx context.Context, token string) (*model.PendingUser, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pendingUserRepository struct {
	db *gorm.DB
}

func NewPendingUserRepository(db *gorm.DB) PendingUserRepository {
	return &pendingUserRepository{db: db}
}

// Upsert creates the pending user or, if the email already has one,
// replaces its payload and reissues the token in place.
func (r *pendingUserRepository) Upsert(ctx context.Context, pending *model.PendingUser) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"password", "first_name", "last_name", "middle_initial",
			"verification_token", "token_expiry",
		}),
	}).Create(pending).Error
}

func (r *pendingUserRepository) GetByEmail(ctx context.Context, email string) (*model.PendingUser, error) {
	var pending model.PendingUser
	if err := GetDB(ctx, r.db).First(&pending, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingUserRepository) GetByToken(ctx context.Context, token string) (*model.PendingUser, error) {
	var pending model.PendingUser
	if err := GetDB(ctx, r.db).First(&pending, "verification_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PendingUser{}).Error
}

// RefreshTokenRepository stores long-lived tokens backing the /refresh flow
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByProfile(ctx context.Context, profileID uuid.UUID) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	if err := GetDB(ctx, r.db).First(&rt, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *refreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("profile_id = ?", profileID).Delete(&model.RefreshToken{}).Error
}
