package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suryatejathodupunuri/LangCentrix/internal/api"
	"github.com/suryatejathodupunuri/LangCentrix/internal/config"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/internal/notify"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"github.com/suryatejathodupunuri/LangCentrix/internal/utils"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/logger"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(cfg, zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := seedAdmin(database, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	metricsCollector := metrics.NewMetricsCollector()

	sessionService := services.NewSessionService(cfg.Security.SessionTTL, zapLogger, metricsCollector)
	defer sessionService.Close()

	userService := services.NewUserService(database, zapLogger, metricsCollector, cfg.Security.PasswordMinLength)
	taskService := services.NewTaskService(database, zapLogger, metricsCollector)
	registryService := services.NewRegistryService(database, zapLogger)
	notifyQueue := notify.NewQueue()

	router := api.NewRouter(zapLogger, metricsCollector, userService, taskService, registryService, sessionService, notifyQueue, database)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

// seedAdmin creates the first admin account on an empty user table so the
// instance is reachable after a fresh deploy. Credentials come from the
// environment, with development fallbacks.
func seedAdmin(database *gorm.DB, zapLogger *zap.Logger) error {
	var count int64
	if err := database.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@langcentrix.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123"
	}

	hash, err := utils.EncryptPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := database.Create(&admin).Error; err != nil {
		return err
	}

	zapLogger.Info("Seeded initial admin user", zap.String("email", email))
	return nil
}
