package repository

import (
	"context"
	"time"

	"ischolar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgramCycleRepository reads the offering windows and their fill levels
type ProgramCycleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProgramCycle, error)
	GetByIDWithProgram(ctx context.Context, id uuid.UUID) (*model.ProgramCycle, error)
	ListOpen(ctx context.Context, now time.Time) ([]model.ProgramCycle, error)
	ListAllWithProgram(ctx context.Context) ([]model.ProgramCycle, error)
	CountApprovedApplications(ctx context.Context, cycleID uuid.UUID) (int64, error)
	SetLastAlertAt(ctx context.Context, cycleID uuid.UUID, at time.Time) error
}

type programCycleRepository struct {
	db *gorm.DB
}

func NewProgramCycleRepository(db *gorm.DB) ProgramCycleRepository {
	return &programCycleRepository{db: db}
}

func (r *programCycleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProgramCycle, error) {
	var cycle model.ProgramCycle
	if err := GetDB(ctx, r.db).First(&cycle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *programCycleRepository) GetByIDWithProgram(ctx context.Context, id uuid.UUID) (*model.ProgramCycle, error) {
	var cycle model.ProgramCycle
	if err := GetDB(ctx, r.db).Preload("Program").First(&cycle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *programCycleRepository) ListOpen(ctx context.Context, now time.Time) ([]model.ProgramCycle, error) {
	var cycles []model.ProgramCycle
	if err := GetDB(ctx, r.db).Preload("Program").
		Where("open_at <= ? AND close_at >= ?", now, now).
		Order("created_at DESC").
		Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

func (r *programCycleRepository) ListAllWithProgram(ctx context.Context) ([]model.ProgramCycle, error) {
	var cycles []model.ProgramCycle
	if err := GetDB(ctx, r.db).Preload("Program").Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

func (r *programCycleRepository) CountApprovedApplications(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Application{}).
		Where("program_cycle_id = ? AND status = ?", cycleID, model.AppStatusApproved).
		Count(&count).Error
	return count, err
}

func (r *programCycleRepository) SetLastAlertAt(ctx context.Context, cycleID uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.ProgramCycle{}).
		Where("id = ?", cycleID).
		Update("last_alert_at", at).Error
}

// RequirementRepository reads the document requirements of a cycle
type RequirementRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Requirement, error)
	ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]model.Requirement, error)
}

type requirementRepository struct {
	db *gorm.DB
}

func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepository{db: db}
}

func (r *requirementRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Requirement, error) {
	var req model.Requirement
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requirementRepository) ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]model.Requirement, error) {
	var reqs []model.Requirement
	if err := GetDB(ctx, r.db).
		Where("program_cycle_id = ?", cycleID).
		Order("sort_order ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}
