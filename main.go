package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classcapture-api/analyzer"
	"classcapture-api/auth"
	"classcapture-api/db"
	"classcapture-api/handlers"
	"classcapture-api/jobs"
	"classcapture-api/quiz"
	"classcapture-api/utils"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// Set up logging with timestamps
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[STARTUP] ClassCapture API starting...")

	if err := godotenv.Load(); err != nil {
		utils.LogStartup("No .env file found, using process environment")
	}

	port := utils.GetEnvOrDefault("PORT", "8080")
	dbPath := utils.GetEnvOrDefault("DB_PATH", "./classcapture.db")
	analyzerURL := utils.GetEnvOrDefault("ANALYZER_URL", "http://127.0.0.1:8000")
	redisURL := utils.GetEnvOrDefault("REDIS_URL", "")
	sessionTTL := time.Duration(utils.GetEnvInt("SESSION_TTL_HOURS", 72)) * time.Hour
	attemptTTL := time.Duration(utils.GetEnvInt("ATTEMPT_TTL_HOURS", 24)) * time.Hour

	utils.LogStartup("Config: port=%s db=%s analyzer=%s", port, dbPath, analyzerURL)

	// Initialize database
	utils.LogStartup("Initializing database connection...")
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize database: %v", err)
	}

	sessionStore := auth.NewSessionStore(sessionTTL)
	attempts := quiz.NewRegistry(attemptTTL)
	analyzerClient := analyzer.NewClient(analyzerURL, nil)
	emailService := auth.NewEmailService(auth.LoadEmailConfig())

	jobManager := jobs.NewJobManager(redisURL, emailService)
	go func() {
		if err := jobManager.Start(); err != nil {
			utils.LogError("Job queue worker stopped: %v", err)
		}
	}()

	// Scheduled housekeeping: expired logins and abandoned quiz attempts.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		sessionStore.SweepExpired()
		attempts.SweepExpired()
	}); err != nil {
		log.Fatalf("[FATAL] Failed to schedule cleanup job: %v", err)
	}
	scheduler.Start()

	// Setup API routes
	utils.LogStartup("Setting up API routes...")
	router := handlers.NewRouter(database, sessionStore, attempts, analyzerClient, emailService, jobManager)

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		utils.LogShutdown("Received shutdown signal...")
		scheduler.Stop()
		jobManager.Stop()
		if err := database.Close(); err != nil {
			utils.LogError("Error closing database: %v", err)
		} else {
			utils.LogShutdown("Database connection closed successfully")
		}
		os.Exit(0)
	}()

	utils.LogStartup("Starting HTTP server on port %s...", port)
	utils.LogStartup("Server ready to accept connections at http://localhost:%s", port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[FATAL] Server failed to start: %v", err)
	}
}
