package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"milesync-backend/internal/agents"
	"milesync-backend/internal/config"
	"milesync-backend/internal/database"
	"milesync-backend/internal/handlers"
	"milesync-backend/internal/middleware"
	"milesync-backend/internal/repository"
	"milesync-backend/internal/router"
	"milesync-backend/internal/services"
	"milesync-backend/internal/websocket"
	"milesync-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting MileSync Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	goalRepo := repository.NewGoalRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	promptRepo := repository.NewPromptRepo(pool)
	analyticsRepo := repository.NewAnalyticsRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		cfg.MonthlyTokenQuota,
		promptRepo,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, profileRepo, redisClients.Queue, jwtAuth)
	oauthService := services.NewOAuthService(authService, redisClients.Queue, cfg)
	chatService := services.NewChatService(chatRepo, goalRepo, jobRepo, geminiService, redisClients.Queue)
	goalService := services.NewGoalService(goalRepo, progressRepo, profileRepo, redisClients.Queue)
	analyticsService := services.NewAnalyticsService(analyticsRepo, geminiService)
	coordinator := agents.NewCoordinator(geminiService, goalService, profileRepo, jobRepo, redisClients.Queue)

	// Seed DB-overridable system prompts (coach, extraction, judges, agents)
	if err := services.SeedSystemPrompts(context.Background(), promptRepo, coordinator.DefaultPrompts()); err != nil {
		log.Fatalf("✗ System prompt seeding failed: %v", err)
	}
	log.Println("✓ System prompts seeded")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, oauthService, cfg.FrontendURL)
	chatHandler := handlers.NewChatHandler(chatService)
	goalHandler := handlers.NewGoalHandler(goalService)
	dashboardHandler := handlers.NewDashboardHandler(goalService, geminiService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	agentHandler := handlers.NewAgentHandler(coordinator)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		geminiService,
		analyticsService,
		coordinator,
		jobRepo,
		5,
	)
	workerPool.Start()
	log.Println("✓ Worker pool started (5 goroutines)")

	notificationScheduler := services.NewNotificationScheduler(userRepo, emailService, redisClients.Queue)
	notificationScheduler.Start()
	log.Println("✓ Notification scheduler started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		chatHandler,
		goalHandler,
		dashboardHandler,
		analyticsHandler,
		agentHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		notificationScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ MileSync Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
