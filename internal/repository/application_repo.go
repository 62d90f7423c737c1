package repository

import (
	"context"

	"ischolar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationRepository defines data access for Application and ApplicationFile
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Application, error)
	GetByStudentAndCycle(ctx context.Context, studentID, cycleID uuid.UUID) (*model.Application, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Application, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Application, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CreateFile(ctx context.Context, file *model.ApplicationFile) error
	GetFileByID(ctx context.Context, id uuid.UUID) (*model.ApplicationFile, error)
	UpdateFile(ctx context.Context, file *model.ApplicationFile) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := GetDB(ctx, r.db).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := GetDB(ctx, r.db).
		Preload("Student").
		Preload("ProgramCycle").
		Preload("ProgramCycle.Program").
		Preload("Files").
		First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) GetByStudentAndCycle(ctx context.Context, studentID, cycleID uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := GetDB(ctx, r.db).
		First(&app, "student_id = ? AND program_cycle_id = ?", studentID, cycleID).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Application, error) {
	var apps []model.Application
	if err := GetDB(ctx, r.db).
		Preload("ProgramCycle").
		Preload("ProgramCycle.Program").
		Preload("Files").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) List(ctx context.Context, status string, page, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Application{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Student").Preload("ProgramCycle").Preload("ProgramCycle.Program")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Application{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *applicationRepository) CreateFile(ctx context.Context, file *model.ApplicationFile) error {
	return GetDB(ctx, r.db).Create(file).Error
}

func (r *applicationRepository) GetFileByID(ctx context.Context, id uuid.UUID) (*model.ApplicationFile, error) {
	var file model.ApplicationFile
	if err := GetDB(ctx, r.db).First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *applicationRepository) UpdateFile(ctx context.Context, file *model.ApplicationFile) error {
	return GetDB(ctx, r.db).Save(file).Error
}

func (r *applicationRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Application{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
