package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"momentum/internal/config"
	"momentum/internal/database"
	"momentum/internal/handlers"
	"momentum/internal/jobs"
	"momentum/internal/logging"
	"momentum/internal/middleware"
	"momentum/internal/services"
	"momentum/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	logging.Init()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database schema: %v", err)
	}
	log.Println("✅ Database initialized")

	// MongoDB is optional: without it chat history is disabled but chat
	// itself still works.
	var mongoDB *database.MongoDB
	if cfg.MongoURI != "" {
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Printf("⚠️  MongoDB connection failed, chat history disabled: %v", err)
			mongoDB = nil
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := mongoDB.Initialize(ctx); err != nil {
				log.Printf("⚠️  MongoDB index creation failed: %v", err)
			}
			cancel()
			defer mongoDB.Close(context.Background())
			log.Println("✅ MongoDB connected")
		}
	} else {
		log.Println("⚠️  MONGODB_URI not set, chat history disabled")
	}

	// Redis is optional: it only gates the multi-instance job locks.
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis connection failed, job locks disabled: %v", err)
			redisService = nil
		} else {
			log.Println("✅ Redis connected")
		}
	}

	// JWT auth. Without a secret the auth middleware falls back to a
	// development bypass (and refuses to start in production).
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("🔐 JWT authentication enabled")
	} else {
		log.Println("⚠️  JWT_SECRET not set, running without authentication (development only)")
	}

	// Domain services
	userService := services.NewUserService(db)
	courseService := services.NewCourseService(db)
	taskService := services.NewTaskService(db)
	skillService := services.NewSkillService(db)
	financeService := services.NewFinanceService(db)
	journalService := services.NewJournalService(db)
	lifestyleService := services.NewLifestyleService(db)
	planService := services.NewPlanService(db)
	memoryService := services.NewMemoryService(db)
	conversationService := services.NewConversationService(mongoDB)

	// AI microservice boundary
	aiClient := services.NewAIClient(cfg.AIServiceURL, cfg.AITimeout)
	aiClient.SetSettingsStore(config.NewAISettingsStore(cfg.AISettingsPath))
	vectorClient := services.NewVectorClient(cfg.VectorStoreURL, 0)

	contextBuilder := services.NewContextBuilder(
		userService, courseService, taskService, skillService,
		financeService, journalService, lifestyleService, planService,
	)
	dispatcher := services.NewDispatcher(
		userService, courseService, taskService, skillService,
		financeService, journalService, lifestyleService, contextBuilder,
	)
	syllabusService := services.NewSyllabusService(db, courseService, taskService, aiClient, vectorClient, memoryService)

	connManager := services.NewConnectionManager()
	metrics := services.InitMetrics(connManager)

	chatService := services.NewChatService(aiClient, contextBuilder, dispatcher, conversationService, userService, connManager)
	planningService := services.NewPlanningService(aiClient, contextBuilder, planService, taskService, connManager)
	onboardingService := services.NewOnboardingService(
		aiClient, userService, courseService, skillService,
		financeService, memoryService, vectorClient, contextBuilder,
	)
	analyticsService := services.NewAnalyticsService(courseService, taskService, skillService, financeService, lifestyleService)
	resourceFetcher := services.NewResourceFetcher()

	// Background jobs
	scheduler, err := services.NewSchedulerService(redisService)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}

	planCleanup := jobs.NewPlanCleanupJob(planService, cfg.PlanRetentionDays)
	streakRefresh := jobs.NewStreakRefreshJob(lifestyleService)
	contextReingest := jobs.NewContextReingestJob(memoryService, syllabusService, vectorClient, contextBuilder)

	registerJob(scheduler, "plan_cleanup", cfg.PlanCleanupCron, planCleanup.Run)
	registerJob(scheduler, "streak_refresh", cfg.StreakRefreshCron, streakRefresh.Run)
	registerJob(scheduler, "context_reingest", cfg.ContextReingestCron, contextReingest.Run)
	scheduler.Start()
	log.Println("✅ Background job scheduler started")

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Momentum v1.0",
		ReadTimeout:  5 * time.Minute, // plan generation calls can run long
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  5 * time.Minute,
		BodyLimit:    25 * 1024 * 1024, // syllabus uploads
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("momentum")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Auth=%d/15min, AI=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.AuthAttemptMax,
		rateLimitConfig.AIMax,
		rateLimitConfig.WebSocketMax,
	)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(connManager, aiClient, vectorClient)
	authHandler := handlers.NewAuthHandler(jwtAuth, userService)
	userHandler := handlers.NewUserHandler(userService, contextBuilder, vectorClient, memoryService)
	courseHandler := handlers.NewCourseHandler(courseService, syllabusService, contextBuilder)
	taskHandler := handlers.NewTaskHandler(taskService, contextBuilder)
	skillHandler := handlers.NewSkillHandler(skillService, aiClient, contextBuilder, resourceFetcher)
	financeHandler := handlers.NewFinanceHandler(financeService, contextBuilder)
	journalHandler := handlers.NewJournalHandler(journalService, contextBuilder)
	lifestyleHandler := handlers.NewLifestyleHandler(lifestyleService, contextBuilder)
	chatHandler := handlers.NewChatHandler(chatService, conversationService, metrics)
	planHandler := handlers.NewPlanHandler(planningService, planService, metrics)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	memoryHandler := handlers.NewMemoryHandler(memoryService, vectorClient)
	wsHandler := handlers.NewWebSocketHandler(connManager, metrics)

	// Public routes
	app.Get("/health", healthHandler.Handle)
	app.Get("/health/ready", healthHandler.Ready)

	authGroup := app.Group("/api/auth", middleware.AuthAttemptRateLimiter(rateLimitConfig))
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authHandler.Logout)

	// Authenticated API
	api := app.Group("/api", middleware.AuthMiddleware(jwtAuth))
	api.Use(middleware.AuthenticatedRateLimiter(rateLimitConfig))

	api.Get("/user/profile", userHandler.GetProfile)
	api.Put("/user/profile", userHandler.UpdateProfile)
	api.Post("/user/context", userHandler.AppendContext)
	api.Post("/user/password", userHandler.ChangePassword)

	api.Get("/courses", courseHandler.List)
	api.Post("/courses", courseHandler.Create)
	api.Get("/courses/:id", courseHandler.Get)
	api.Patch("/courses/:id", courseHandler.Update)
	api.Delete("/courses/:id", courseHandler.Delete)
	api.Get("/courses/:id/schedules", courseHandler.ListSchedules)
	api.Post("/courses/:id/schedules", courseHandler.AddSchedule)
	api.Put("/schedules/:id", courseHandler.UpdateSchedule)
	api.Delete("/schedules/:id", courseHandler.DeleteSchedule)
	api.Post("/schedules/:id/attendance", courseHandler.MarkAttendance)
	api.Get("/courses/:id/attendance", courseHandler.ListAttendance)
	api.Post("/courses/:id/syllabus", courseHandler.UploadSyllabus)
	api.Delete("/courses/:id/syllabus", courseHandler.DeleteSyllabus)
	api.Get("/courses/:id/syllabus/verify", courseHandler.VerifySyllabus)

	// Exam routes before the :id routes so "exams" never matches as an ID.
	api.Post("/tasks/exams", taskHandler.CreateExam)
	api.Get("/tasks/exams", taskHandler.ListExams)
	api.Patch("/tasks/exams/:id", taskHandler.UpdateExam)
	api.Delete("/tasks/exams/:id", taskHandler.DeleteExam)
	api.Get("/tasks", taskHandler.List)
	api.Post("/tasks", taskHandler.Create)
	api.Get("/tasks/:id", taskHandler.Get)
	api.Patch("/tasks/:id", taskHandler.Update)
	api.Post("/tasks/:id/toggle", taskHandler.Toggle)
	api.Delete("/tasks/:id", taskHandler.Delete)

	aiLimiter := middleware.AIRateLimiter(rateLimitConfig)

	// Static skill routes before the :id routes so "templates" and
	// "suggestions" never match as IDs.
	api.Get("/skills/templates", skillHandler.ListTemplates)
	api.Post("/skills/templates/import", skillHandler.ImportTemplate)
	api.Post("/skills/suggestions", aiLimiter, skillHandler.Suggestions)
	api.Get("/skills", skillHandler.List)
	api.Post("/skills", skillHandler.Create)
	api.Get("/skills/:id", skillHandler.Get)
	api.Patch("/skills/:id", skillHandler.Update)
	api.Delete("/skills/:id", skillHandler.Delete)
	api.Post("/skills/:id/milestones", skillHandler.AddMilestone)
	api.Patch("/milestones/:id", skillHandler.UpdateMilestone)
	api.Post("/milestones/:id/toggle", skillHandler.ToggleMilestone)
	api.Delete("/milestones/:id", skillHandler.DeleteMilestone)
	api.Post("/skills/:id/resources", skillHandler.AddResource)
	api.Delete("/resources/:id", skillHandler.DeleteResource)
	api.Post("/skills/:id/roadmap", aiLimiter, skillHandler.GenerateRoadmap)

	api.Get("/finances", financeHandler.List)
	api.Post("/finances", financeHandler.Create)
	api.Get("/finances/summary", financeHandler.Summary)
	api.Get("/finances/goals", financeHandler.ListGoals)
	api.Post("/finances/goals", financeHandler.CreateGoal)
	api.Patch("/finances/goals/:id", financeHandler.UpdateGoal)
	api.Delete("/finances/goals/:id", financeHandler.DeleteGoal)
	api.Put("/finances/budget", financeHandler.SetBudget)
	api.Get("/finances/budget", financeHandler.GetBudget)
	api.Patch("/finances/:id", financeHandler.Update)
	api.Delete("/finances/:id", financeHandler.Delete)

	api.Get("/journals", journalHandler.List)
	api.Post("/journals", journalHandler.Create)
	api.Get("/journals/:id", journalHandler.Get)
	api.Patch("/journals/:id", journalHandler.Update)
	api.Delete("/journals/:id", journalHandler.Delete)
	api.Get("/journals/:id/html", journalHandler.Render)

	api.Get("/lifestyle", lifestyleHandler.ListEntries)
	api.Post("/lifestyle", lifestyleHandler.CreateEntry)
	api.Delete("/lifestyle/:id", lifestyleHandler.DeleteEntry)
	api.Get("/habits", lifestyleHandler.ListHabits)
	api.Post("/habits", lifestyleHandler.CreateHabit)
	api.Post("/habits/:id/toggle", lifestyleHandler.ToggleHabit)
	api.Delete("/habits/:id", lifestyleHandler.DeleteHabit)

	api.Get("/analytics/overview", analyticsHandler.Overview)
	api.Get("/analytics/export", analyticsHandler.Export)

	// AI family. Routes that fan out to the AI service get a tighter limit;
	// it is the expensive resource here.
	ai := api.Group("/ai")
	ai.Post("/chat", aiLimiter, chatHandler.Send)
	ai.Post("/plan", aiLimiter, planHandler.Generate)
	ai.Post("/plan/complete", aiLimiter, planHandler.Complete)
	ai.Post("/plan/rebalance", aiLimiter, planHandler.Rebalance)
	ai.Get("/plan/today", planHandler.Today)
	ai.Get("/plans", planHandler.Recent)
	ai.Get("/plans/:date", planHandler.ForDate)
	ai.Get("/memories", memoryHandler.List)
	ai.Delete("/memories/:docID", memoryHandler.Delete)

	api.Post("/onboarding/start", aiLimiter, onboardingHandler.Start)
	api.Post("/onboarding/answer", aiLimiter, onboardingHandler.Answer)

	api.Get("/conversations", chatHandler.ListConversations)
	api.Get("/conversations/:id", chatHandler.GetConversation)
	api.Delete("/conversations/:id", chatHandler.DeleteConversation)

	// WebSocket push channel
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			c.Locals("client_ip", c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws/updates", middleware.WebSocketRateLimiter(rateLimitConfig))
	app.Use("/ws/updates", middleware.AuthMiddleware(jwtAuth))
	app.Get("/ws/updates", websocket.New(wsHandler.Handle, websocket.Config{
		Origins: strings.Split(allowedOrigins, ","),
	}))

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("🔗 WebSocket endpoint: ws://localhost:%s/ws/updates", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := scheduler.Stop(); err != nil {
			log.Printf("⚠️  Error stopping scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func registerJob(scheduler *services.SchedulerService, name, cronExpr string, run func(ctx context.Context) error) {
	if err := scheduler.RegisterCron(name, cronExpr, run); err != nil {
		log.Fatalf("❌ Failed to register job %s: %v", name, err)
	}
}
