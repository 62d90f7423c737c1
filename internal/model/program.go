package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Program is a scholarship offering (e.g. Merit Scholarship).
// GwaCeiling is the worst acceptable GWA for applicants (lower is better);
// nil means the program has no grade requirement.
type Program struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	GwaCeiling  *decimal.Decimal `gorm:"type:numeric(4,2)" json:"gwa_ceiling,omitempty"`
	IsActive    bool             `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProgramCycle is one time-boxed offering window of a Program.
// MaxSlots = 0 means unlimited capacity (no threshold alerting).
type ProgramCycle struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_program_ayterm,priority:1" json:"program_id"`
	Program     Program         `gorm:"foreignKey:ProgramID" json:"program"`
	AyTerm      string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_program_ayterm,priority:2" json:"ay_term"`
	OpenAt      time.Time       `json:"open_at"`
	CloseAt     time.Time       `json:"close_at"`
	MaxSlots    int             `gorm:"default:0" json:"max_slots"`
	BudgetCap   decimal.Decimal `gorm:"type:numeric(14,2)" json:"budget_cap"`
	LastAlertAt *time.Time      `json:"last_alert_at,omitempty"` // capacity alert suppression guard
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Requirement is a named document type a ProgramCycle demands from applicants
type Requirement struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramCycleID uuid.UUID `gorm:"type:uuid;not null;index" json:"program_cycle_id"`
	Code           string    `gorm:"type:varchar(50);not null" json:"code"`
	Label          string    `gorm:"type:varchar(255);not null" json:"label"`
	Description    string    `gorm:"type:text" json:"description"`
	MimeTypes      []string  `gorm:"serializer:json;type:jsonb" json:"mime_types"`
	MaxSizeMb      int       `gorm:"default:5" json:"max_size_mb"`
	Mandatory      bool      `gorm:"default:true" json:"mandatory"`
	SortOrder      int       `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}
