package service

import (
	"context"

	"ischolar/internal/model"

	"gorm.io/gorm"
)

// --- DTOs ---

type CycleFill struct {
	CycleID     string  `json:"cycle_id"`
	ProgramName string  `json:"program_name"`
	AyTerm      string  `json:"ay_term"`
	Approved    int64   `json:"approved"`
	MaxSlots    int     `json:"max_slots"`
	Percentage  float64 `json:"percentage"`
}

type DashboardResponse struct {
	TotalProfiles        int64            `json:"total_profiles"`
	PendingVerifications int64            `json:"pending_verifications"`
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`
	CycleFills           []CycleFill      `json:"cycle_fills"`
}

// StatisticsService aggregates the admin dashboard numbers
type StatisticsService interface {
	GetDashboard(ctx context.Context) (DashboardResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetDashboard computes profile, verification, and per-cycle fill metrics
func (s *statisticsService) GetDashboard(ctx context.Context) (DashboardResponse, error) {
	var response DashboardResponse
	response.ApplicationsByStatus = make(map[string]int64)

	if err := s.db.WithContext(ctx).Model(&model.Profile{}).Count(&response.TotalProfiles).Error; err != nil {
		return response, err
	}

	if err := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("verification_status = ?", model.VerificationUnderReview).
		Count(&response.PendingVerifications).Error; err != nil {
		return response, err
	}

	var statusCounts []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Application{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return response, err
	}
	for _, row := range statusCounts {
		response.ApplicationsByStatus[row.Status] = row.Count
	}

	var fills []struct {
		CycleID     string
		ProgramName string
		AyTerm      string
		Approved    int64
		MaxSlots    int
	}
	if err := s.db.WithContext(ctx).Table("program_cycles").
		Select(`program_cycles.id as cycle_id, programs.name as program_name, program_cycles.ay_term,
			COUNT(applications.id) FILTER (WHERE applications.status = 'APPROVED') as approved,
			program_cycles.max_slots`).
		Joins("JOIN programs ON programs.id = program_cycles.program_id").
		Joins("LEFT JOIN applications ON applications.program_cycle_id = program_cycles.id").
		Group("program_cycles.id, programs.name, program_cycles.ay_term, program_cycles.max_slots").
		Scan(&fills).Error; err != nil {
		return response, err
	}

	for _, fill := range fills {
		entry := CycleFill{
			CycleID:     fill.CycleID,
			ProgramName: fill.ProgramName,
			AyTerm:      fill.AyTerm,
			Approved:    fill.Approved,
			MaxSlots:    fill.MaxSlots,
		}
		if fill.MaxSlots > 0 {
			entry.Percentage = float64(fill.Approved) / float64(fill.MaxSlots) * 100
		}
		response.CycleFills = append(response.CycleFills, entry)
	}

	return response, nil
}
