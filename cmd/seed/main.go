package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"time"

	"ischolar/internal/database"
	"ischolar/internal/model"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Seeds the scholarship catalog: two programs, their AY2025-2026 first
// semester cycles, and the per-cycle requirement checklists. Safe to re-run;
// every insert is an upsert keyed on the natural unique columns.
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "ischolar")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	log.Println("Seeding database...")

	meritCeiling := decimal.NewFromFloat(1.75)
	needsCeiling := decimal.NewFromFloat(2.25)

	merit := model.Program{
		Code:        "MERIT",
		Name:        "Merit Scholarship",
		Description: "For top-performing students with GWA 1.75 or higher",
		GwaCeiling:  &meritCeiling,
		IsActive:    true,
	}
	needs := model.Program{
		Code:        "NEEDS_BASED",
		Name:        "Needs-Based Grant",
		Description: "For students requiring financial support",
		GwaCeiling:  &needsCeiling,
		IsActive:    true,
	}
	for _, program := range []*model.Program{&merit, &needs} {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "gwa_ceiling", "is_active"}),
		}).Create(program).Error
		if err != nil {
			log.Fatalf("Failed to seed program %s: %v", program.Code, err)
		}
		// Re-read so the upsert path also yields the row ID
		if err := db.Where("code = ?", program.Code).First(program).Error; err != nil {
			log.Fatalf("Failed to load program %s: %v", program.Code, err)
		}
	}
	log.Printf("Programs seeded: %s, %s", merit.Code, needs.Code)

	const ayTerm = "AY2025-2026 1st Sem"
	meritCycle := model.ProgramCycle{
		ProgramID: merit.ID,
		AyTerm:    ayTerm,
		OpenAt:    time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		CloseAt:   time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
		MaxSlots:  50,
		BudgetCap: decimal.NewFromInt(250000),
	}
	needsCycle := model.ProgramCycle{
		ProgramID: needs.ID,
		AyTerm:    ayTerm,
		OpenAt:    time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		CloseAt:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		MaxSlots:  100,
		BudgetCap: decimal.NewFromInt(300000),
	}
	for _, cycle := range []*model.ProgramCycle{&meritCycle, &needsCycle} {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "program_id"}, {Name: "ay_term"}},
			DoNothing: true,
		}).Create(cycle).Error
		if err != nil {
			log.Fatalf("Failed to seed cycle for program %s: %v", cycle.ProgramID, err)
		}
		if err := db.Where("program_id = ? AND ay_term = ?", cycle.ProgramID, ayTerm).First(cycle).Error; err != nil {
			log.Fatalf("Failed to load cycle: %v", err)
		}
	}
	log.Println("Program cycles seeded")

	docMimeTypes := []string{"application/pdf", "image/jpeg", "image/png"}
	photoMimeTypes := []string{"image/jpeg", "image/png"}

	requirements := []model.Requirement{
		{ProgramCycleID: meritCycle.ID, Code: "COE", Label: "Certificate of Enrollment",
			Description: "Current certificate of enrollment for this semester",
			MimeTypes:   docMimeTypes, MaxSizeMb: 5, Mandatory: true, SortOrder: 1},
		{ProgramCycleID: meritCycle.ID, Code: "STUDENT_ID", Label: "Valid Student ID",
			Description: "Clear photo of your student ID",
			MimeTypes:   photoMimeTypes, MaxSizeMb: 3, Mandatory: true, SortOrder: 2},
		{ProgramCycleID: meritCycle.ID, Code: "GRADES", Label: "Transcript of Records / Grade Sheet",
			Description: "Most recent grades showing GWA",
			MimeTypes:   docMimeTypes, MaxSizeMb: 5, Mandatory: true, SortOrder: 3},

		{ProgramCycleID: needsCycle.ID, Code: "INCOME_PROOF", Label: "Proof of Household Income",
			Description: "ITR, Certificate of Employment, or similar documents",
			MimeTypes:   docMimeTypes, MaxSizeMb: 5, Mandatory: true, SortOrder: 1},
		{ProgramCycleID: needsCycle.ID, Code: "BARANGAY_CLEARANCE", Label: "Barangay Clearance",
			Description: "Valid barangay clearance",
			MimeTypes:   docMimeTypes, MaxSizeMb: 3, Mandatory: true, SortOrder: 2},
		{ProgramCycleID: needsCycle.ID, Code: "STUDENT_ID", Label: "Valid Student ID",
			Description: "Clear photo of your student ID",
			MimeTypes:   photoMimeTypes, MaxSizeMb: 3, Mandatory: true, SortOrder: 3},
		{ProgramCycleID: needsCycle.ID, Code: "GRADES", Label: "Transcript of Records / Grade Sheet",
			Description: "Most recent grades showing GWA 2.25 or higher",
			MimeTypes:   docMimeTypes, MaxSizeMb: 5, Mandatory: true, SortOrder: 4},
	}
	for _, req := range requirements {
		var count int64
		db.Model(&model.Requirement{}).
			Where("program_cycle_id = ? AND code = ?", req.ProgramCycleID, req.Code).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&req).Error; err != nil {
			log.Fatalf("Failed to seed requirement %s: %v", req.Code, err)
		}
	}
	log.Println("Requirements seeded")

	seedAdmin(db)

	log.Println("Seeding complete!")
}

// seedAdmin upserts a pre-verified admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set. Staff accounts never go through the student
// verification flow.
func seedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate user ID: %v", err)
	}

	now := time.Now()
	admin := model.Profile{
		UserID:             hex.EncodeToString(buf),
		Email:              email,
		Password:           string(hashed),
		FirstName:          envOr("ADMIN_FIRST_NAME", "Portal"),
		LastName:           envOr("ADMIN_LAST_NAME", "Admin"),
		Role:               model.RoleAdmin,
		VerificationStatus: model.VerificationVerified,
		EmailVerifiedAt:    &now,
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password", "role", "verification_status"}),
	}).Create(&admin).Error
	if err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}
	log.Printf("Admin account seeded: %s", email)
}
