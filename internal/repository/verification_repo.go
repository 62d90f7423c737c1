package repository

import (
	"context"

	"ischolar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationDocumentRepository defines data access for identity documents
type VerificationDocumentRepository interface {
	Create(ctx context.Context, doc *model.VerificationDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.VerificationDocument, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]model.VerificationDocument, error)
	Update(ctx context.Context, doc *model.VerificationDocument) error
}

type verificationDocumentRepository struct {
	db *gorm.DB
}

func NewVerificationDocumentRepository(db *gorm.DB) VerificationDocumentRepository {
	return &verificationDocumentRepository{db: db}
}

func (r *verificationDocumentRepository) Create(ctx context.Context, doc *model.VerificationDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *verificationDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VerificationDocument, error) {
	var doc model.VerificationDocument
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *verificationDocumentRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]model.VerificationDocument, error) {
	var docs []model.VerificationDocument
	if err := GetDB(ctx, r.db).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *verificationDocumentRepository) Update(ctx context.Context, doc *model.VerificationDocument) error {
	return GetDB(ctx, r.db).Save(doc).Error
}
