package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"hireflow/internal/api/handlers"
	"hireflow/internal/api/middleware"
	"hireflow/internal/auth"
	"hireflow/internal/background"
	"hireflow/internal/config"
	"hireflow/internal/importer"
	"hireflow/internal/llm"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/utils"
)

// Deps bundles everything the route tree needs
type Deps struct {
	Config        *config.Config
	Verifier      *auth.Verifier
	DB            *postgres.DB
	Redis         *utils.RedisClient
	LLM           *llm.Manager
	TaskManager   background.TaskManager
	Importer      *importer.Importer
	Applications  *postgres.ApplicationRepo
	Jobs          *postgres.JobRepo
	Candidates    *postgres.CandidateRepo
	Slots         *postgres.SlotRepo
	Notifications *postgres.NotificationRepo
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, deps Deps) {
	cfg := deps.Config

	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation(cfg.Interview.MaxResumeSize + 64*1024))
	// Selective timeout: the LLM-backed endpoints get 2 minutes, the rest the server default
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, 2*time.Minute))

	requireAuth := middleware.RequireAuth(deps.Verifier)
	candidateOnly := middleware.RequireRole(auth.RoleCandidate)
	recruiterOnly := middleware.RequireRole(auth.RoleRecruiter)
	violationLimiter := middleware.NewKeyedLimiter(cfg.RateLimit.ViolationsPerMinute, cfg.RateLimit.Burst)

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler(deps.DB, deps.Redis, deps.LLM))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.DB))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		// Public job board
		v1.GET("/jobs", handlers.ListJobsHandler(deps.Jobs))
		v1.GET("/jobs/:id", handlers.GetJobHandler(deps.Jobs))

		// Recruiter job management
		recruiterJobs := v1.Group("/jobs", requireAuth, recruiterOnly)
		{
			recruiterJobs.POST("", handlers.CreateJobHandler(deps.Jobs))
			recruiterJobs.PUT("/:id", handlers.UpdateJobHandler(deps.Jobs))
			recruiterJobs.DELETE("/:id", handlers.DeleteJobHandler(deps.Jobs))
			recruiterJobs.POST("/import", handlers.ImportJobHandler(deps.TaskManager, deps.Importer, deps.Jobs))
			recruiterJobs.GET("/import/:process_id", handlers.ImportStatusHandler(deps.TaskManager))
		}

		// Candidate application and interview flow
		applications := v1.Group("/applications", requireAuth, candidateOnly)
		{
			applications.POST("", handlers.ApplyHandler(cfg, deps.Applications, deps.Jobs, deps.Candidates, deps.LLM, deps.Redis))
			applications.GET("", handlers.ListApplicationsHandler(deps.Applications))
			applications.GET("/:id", handlers.GetApplicationHandler(deps.Applications))
		}

		// Recruiter verdict on an application for one of their jobs
		v1.PUT("/applications/:id/decision",
			handlers.DecisionHandler(deps.Applications, deps.Jobs),
			requireAuth, recruiterOnly)

		interview := v1.Group("/interview", requireAuth, candidateOnly)
		{
			interview.POST("/chat", handlers.ChatHandler(deps.Applications, deps.Jobs, deps.LLM, deps.Redis))
			interview.POST("/violations",
				handlers.ViolationHandler(cfg, deps.Applications, deps.Redis),
				middleware.RateLimitByUser(violationLimiter))
		}

		// Candidate profile
		profile := v1.Group("/profile", requireAuth, candidateOnly)
		{
			profile.GET("", handlers.GetProfileHandler(deps.Candidates))
			profile.PUT("", handlers.UpdateProfileHandler(deps.Candidates))
			profile.POST("/resume", handlers.UploadProfileResumeHandler(cfg, deps.Candidates))
			profile.POST("/photo", handlers.UploadProfilePhotoHandler(deps.Candidates))
		}
		v1.GET("/notifications", handlers.ListNotificationsHandler(deps.Notifications), requireAuth, candidateOnly)

		// Recruiter scheduling
		slots := v1.Group("/slots", requireAuth, recruiterOnly)
		{
			slots.GET("", handlers.ListSlotsHandler(deps.Slots))
			slots.POST("", handlers.CreateSlotHandler(deps.Slots))
			slots.PUT("/:id", handlers.UpdateSlotHandler(deps.Slots, deps.Notifications))
			slots.DELETE("/:id", handlers.DeleteSlotHandler(deps.Slots, deps.Notifications))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "HireFlow Recruitment Platform",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
