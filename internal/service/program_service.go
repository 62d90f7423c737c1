package service

import (
	"context"
	"time"

	"ischolar/internal/repository"
	"ischolar/pkg/apperr"
)

// --- DTOs ---

type RequirementResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	MimeTypes   []string `json:"mime_types"`
	MaxSizeMb   int      `json:"max_size_mb"`
	Mandatory   bool     `json:"mandatory"`
}

type ProgramCycleResponse struct {
	ID           string                `json:"id"`
	ProgramCode  string                `json:"program_code"`
	ProgramName  string                `json:"program_name"`
	Description  string                `json:"description,omitempty"`
	GwaCeiling   *string               `json:"gwa_ceiling,omitempty"`
	AyTerm       string                `json:"ay_term"`
	OpenAt       string                `json:"open_at"`
	CloseAt      string                `json:"close_at"`
	MaxSlots     int                   `json:"max_slots"`
	Requirements []RequirementResponse `json:"requirements"`
}

// --- Interface ---

// ProgramService is the read surface over scholarship offerings
type ProgramService interface {
	ListOpenCycles(ctx context.Context) ([]ProgramCycleResponse, error)
}

type programService struct {
	cycles       repository.ProgramCycleRepository
	requirements repository.RequirementRepository
}

func NewProgramService(cycles repository.ProgramCycleRepository, requirements repository.RequirementRepository) ProgramService {
	return &programService{cycles: cycles, requirements: requirements}
}

// --- Implementation ---

func (s *programService) ListOpenCycles(ctx context.Context) ([]ProgramCycleResponse, error) {
	cycles, err := s.cycles.ListOpen(ctx, time.Now())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to load programs", err)
	}

	result := make([]ProgramCycleResponse, 0, len(cycles))
	for _, cycle := range cycles {
		entry := ProgramCycleResponse{
			ID:          cycle.ID.String(),
			ProgramCode: cycle.Program.Code,
			ProgramName: cycle.Program.Name,
			Description: cycle.Program.Description,
			AyTerm:      cycle.AyTerm,
			OpenAt:      cycle.OpenAt.Format(time.RFC3339),
			CloseAt:     cycle.CloseAt.Format(time.RFC3339),
			MaxSlots:    cycle.MaxSlots,
		}
		if cycle.Program.GwaCeiling != nil {
			ceiling := cycle.Program.GwaCeiling.StringFixed(2)
			entry.GwaCeiling = &ceiling
		}

		reqs, reqErr := s.requirements.ListByCycle(ctx, cycle.ID)
		if reqErr != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, "Failed to load requirements", reqErr)
		}
		for _, req := range reqs {
			entry.Requirements = append(entry.Requirements, RequirementResponse{
				ID:          req.ID.String(),
				Code:        req.Code,
				Label:       req.Label,
				Description: req.Description,
				MimeTypes:   req.MimeTypes,
				MaxSizeMb:   req.MaxSizeMb,
				Mandatory:   req.Mandatory,
			})
		}
		result = append(result, entry)
	}
	return result, nil
}
