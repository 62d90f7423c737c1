package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

// ThresholdAlert summarizes one capacity alert emitted during a scan
type ThresholdAlert struct {
	CycleID     string  `json:"cycle_id"`
	ProgramName string  `json:"program_name"`
	AyTerm      string  `json:"ay_term"`
	Filled      int64   `json:"filled"`
	MaxSlots    int     `json:"max_slots"`
	Percentage  float64 `json:"percentage"`
	Priority    string  `json:"priority"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
}

// --- Interface ---

// ThresholdService scans program cycles' approved-application counts
// against slot capacity and alerts staff through the dispatcher. It is
// safe to trigger from an HTTP endpoint or a future cron without change.
type ThresholdService interface {
	CheckThresholds(ctx context.Context, actorID *uuid.UUID) ([]ThresholdAlert, error)
}

type thresholdService struct {
	cycles   repository.ProgramCycleRepository
	audits   repository.AuditLogRepository
	notifier NotificationService
	window   time.Duration // suppression window between alerts for one cycle
	now      func() time.Time
}

const DefaultAlertWindow = 6 * time.Hour

func NewThresholdService(
	cycles repository.ProgramCycleRepository,
	audits repository.AuditLogRepository,
	notifier NotificationService,
	window time.Duration,
) ThresholdService {
	if window <= 0 {
		window = DefaultAlertWindow
	}
	return &thresholdService{
		cycles:   cycles,
		audits:   audits,
		notifier: notifier,
		window:   window,
		now:      time.Now,
	}
}

// --- Implementation ---

// CheckThresholds emits one HIGH alert per cycle between 80% and 100%
// capacity and one URGENT alert at or above 100%. A cycle alerted within
// the suppression window is skipped on re-scan.
func (s *thresholdService) CheckThresholds(ctx context.Context, actorID *uuid.UUID) ([]ThresholdAlert, error) {
	cycles, err := s.cycles.ListAllWithProgram(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "Failed to load program cycles", err)
	}

	now := s.now()
	alerts := []ThresholdAlert{}

	for _, cycle := range cycles {
		if cycle.MaxSlots <= 0 {
			continue
		}
		if cycle.LastAlertAt != nil && now.Sub(*cycle.LastAlertAt) < s.window {
			continue
		}

		approved, err := s.cycles.CountApprovedApplications(ctx, cycle.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, "Failed to count approved applications", err)
		}

		percentage := float64(approved) / float64(cycle.MaxSlots) * 100
		if percentage < 80 {
			continue
		}

		alert := s.buildAlert(cycle, approved, percentage)
		cycleID := cycle.ID

		// Alert delivery is best-effort: a failed fan-out must not fail
		// the scan for the remaining cycles.
		if _, err := s.notifier.NotifyStaff(ctx, NotifyParams{
			Title:     alert.Title,
			Body:      alert.Body,
			Type:      model.NotifThresholdWarning,
			Priority:  alert.Priority,
			ActionURL: fmt.Sprintf("/admin/programs/%s", cycle.ProgramID),
			RelatedID: &cycleID,
		}); err != nil {
			log.Printf("threshold alert fan-out failed for cycle %s: %v", cycle.ID, err)
			continue
		}

		if err := s.cycles.SetLastAlertAt(ctx, cycle.ID, now); err != nil {
			log.Printf("failed to record alert time for cycle %s: %v", cycle.ID, err)
		}

		alerts = append(alerts, alert)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"cycles_scanned": len(cycles),
		"alerts_emitted": len(alerts),
	})
	entry := model.AuditLog{
		ActorID: actorID,
		Action:  model.ActionCheckThresholds,
		Subject: "thresholds",
		Details: string(details),
	}
	if err := s.audits.Create(ctx, &entry); err != nil {
		log.Printf("failed to write threshold audit log: %v", err)
	}

	return alerts, nil
}

func (s *thresholdService) buildAlert(cycle model.ProgramCycle, approved int64, percentage float64) ThresholdAlert {
	alert := ThresholdAlert{
		CycleID:     cycle.ID.String(),
		ProgramName: cycle.Program.Name,
		AyTerm:      cycle.AyTerm,
		Filled:      approved,
		MaxSlots:    cycle.MaxSlots,
		Percentage:  percentage,
	}

	if percentage >= 100 {
		alert.Priority = model.PriorityUrgent
		alert.Title = fmt.Sprintf("%s - %s at full capacity", cycle.Program.Name, cycle.AyTerm)
		alert.Body = fmt.Sprintf(
			"All %d slots have been filled. Consider increasing the slot limit or closing applications.",
			cycle.MaxSlots)
		return alert
	}

	remaining := int64(cycle.MaxSlots) - approved
	alert.Priority = model.PriorityHigh
	alert.Title = fmt.Sprintf("%s - %s approaching capacity", cycle.Program.Name, cycle.AyTerm)
	alert.Body = fmt.Sprintf(
		"%d out of %d slots filled (%.1f%%). Only %d slots remaining.",
		approved, cycle.MaxSlots, percentage, remaining)
	return alert
}
