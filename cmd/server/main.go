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

	"DIP-EASY/internal"
	"DIP-EASY/internal/app"
	"DIP-EASY/internal/config"
	"DIP-EASY/internal/handlers"
	"DIP-EASY/internal/logging"
	"DIP-EASY/internal/metrics"
	"DIP-EASY/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize application", "error", err)
	}
	defer a.Close()

	if err := internal.Migrate(a.DB, sugar); err != nil {
		sugar.Fatalw("Failed to migrate database", "error", err)
	}

	sweeper := startSweeper(cfg.Sweep, a.Generations, sugar)

	router := handlers.NewRouter(handlers.Handlers{
		Templates:   handlers.NewTemplateHandler(a.Templates),
		Generations: handlers.NewGenerationHandler(a.Generations),
		Attachments: handlers.NewAttachmentHandler(a.Attachments),
		Drive:       handlers.NewDriveHandler(a.Drive),
	}, handlers.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		Metrics:      metrics.Handler(a.Metrics),
		Log:          logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		sugar.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server forced to shutdown", "error", err)
	}
	sugar.Info("Server exited")
}

func startSweeper(cfg config.SweepConfig, generations *services.GenerationService, log *zap.SugaredLogger) *services.Sweeper {
	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil || maxAge <= 0 {
		log.Infow("Generation sweeper disabled", "max_age", cfg.MaxAge)
		return nil
	}
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil || interval <= 0 {
		interval = time.Hour
	}
	sweeper := services.NewSweeper(generations, interval, maxAge, log)
	sweeper.Start()
	return sweeper
}
