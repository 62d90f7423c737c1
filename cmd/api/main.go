package main

import (
	"log"
	"os"

	"ischolar/internal/database"
	"ischolar/internal/handler"
	"ischolar/internal/mailer"
	"ischolar/internal/middleware"
	"ischolar/internal/repository"
	"ischolar/internal/service"
	"ischolar/internal/storage"
	"ischolar/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           iScholar API
// @version         1.0
// @description     Scholarship application portal: verification, applications, notifications, and capacity alerts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Outbound adapters
	mail := mailer.NewSMTPMailer(
		envOr("SMTP_HOST", "localhost"),
		envOr("SMTP_PORT", "587"),
		os.Getenv("SMTP_USERNAME"),
		os.Getenv("SMTP_PASSWORD"),
		envOr("SMTP_FROM", "no-reply@ischolar.local"),
		envOr("SMTP_FROM_NAME", "iScholar"),
		envOr("APP_VERIFY_URL", "http://localhost:5173/verify-email"),
	)
	uploader := storage.NewDiskUploader(envOr("UPLOAD_DIR", "uploads"))

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	profileRepo := repository.NewProfileRepository(db)
	pendingUserRepo := repository.NewPendingUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	cycleRepo := repository.NewProgramCycleRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	documentRepo := repository.NewVerificationDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	notificationService := service.NewNotificationServiceWithHub(notificationRepo, profileRepo, wsHub)
	profileService := service.NewProfileService(profileRepo, auditRepo)
	authService := service.NewAuthService(profileRepo, pendingUserRepo, refreshTokenRepo, profileService, mail, txManager)
	verificationService := service.NewVerificationService(profileRepo, documentRepo, auditRepo, notificationService, uploader, txManager)
	programService := service.NewProgramService(cycleRepo, requirementRepo)
	applicationService := service.NewApplicationService(
		profileRepo, applicationRepo, cycleRepo, requirementRepo,
		auditRepo, notificationService, uploader, txManager,
	)
	thresholdService := service.NewThresholdService(cycleRepo, auditRepo, notificationService, service.DefaultAlertWindow)
	statisticsService := service.NewStatisticsService(db)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, profileService)
	verificationHandler := handler.NewVerificationHandler(verificationService)
	applicationHandler := handler.NewApplicationHandler(applicationService, programService)
	notificationHandler := handler.NewNotificationHandler(notificationService, profileRepo)
	adminHandler := handler.NewAdminHandler(statisticsService, auditService, thresholdService, profileRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for staff push notifications
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	verificationHandler.RegisterRoutes(router.Group(""))
	applicationHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
