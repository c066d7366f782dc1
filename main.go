// File: /main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"bikerental-api/config"
	"bikerental-api/database"
	"bikerental-api/logger"
	"bikerental-api/routes"
	"bikerental-api/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	// Set Gin mode based on environment
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	dbLogLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		dbLogLevel = gormlogger.Info
	}
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, dbLogLevel)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Seed database with sample data (optional - for development)
	if cfg.SeedData {
		if err := database.SeedData(db, zapLogger); err != nil {
			zapLogger.Warn("Failed to seed database", zap.Error(err))
		}
	}

	clock := clockwork.NewRealClock()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var blacklist services.TokenBlacklist = services.NewMemoryBlacklist(clock)
	if cfg.RedisURL != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		blacklist = services.NewRedisBlacklist(client, clock)
		zapLogger.Info("Using redis token blacklist")
	}

	var notifier services.Notifier = services.NewEmailService(cfg)
	if cfg.IsDevelopment() || cfg.SMTPHost == "" {
		notifier = services.NewLogNotifier(zapLogger)
		zapLogger.Info("SMTP disabled, mails are written to the log")
	}

	app, err := routes.NewApp(routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Logger:    zapLogger,
		Clock:     clock,
		Notifier:  notifier,
		Blacklist: blacklist,
	})
	if err != nil {
		zapLogger.Fatal("Failed to set up application", zap.Error(err))
	}

	if cfg.AdminPassword != "" {
		secret, err := app.OTP.GenerateSecret(cfg.AdminEmail)
		if err != nil {
			zapLogger.Fatal("Failed to generate admin OTP secret", zap.Error(err))
		}
		created, err := database.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword, secret)
		if err != nil {
			zapLogger.Fatal("Failed to create admin user", zap.Error(err))
		}
		if created {
			zapLogger.Info("Admin user created", zap.String("email", cfg.AdminEmail))
		}
	}

	cleanupJob := app.CleanupJob(clock, time.Minute)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting Bike Rental API server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
}
