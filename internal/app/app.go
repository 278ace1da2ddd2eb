// Package app wires the configured stores, clients and services together.
package app

import (
	"context"
	"fmt"
	"time"

	"DIP-EASY/internal"
	"DIP-EASY/internal/annex"
	"DIP-EASY/internal/config"
	"DIP-EASY/internal/locks"
	"DIP-EASY/internal/metrics"
	"DIP-EASY/internal/repositories"
	"DIP-EASY/internal/services"
	"DIP-EASY/internal/storage"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	DB       *gorm.DB
	Metrics  *prom.Registry
	Registry *storage.Registry

	Folders     *services.FolderProvisioner
	Templates   *services.TemplateService
	Generations *services.GenerationService
	Attachments *services.AttachmentService
	Drive       *services.DriveSettingsService

	closers []func() error
}

// Build connects to the database and constructs every service. Close
// releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	db, err := internal.InitDB(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db, Metrics: prom.NewRegistry()}
	a.closers = append(a.closers, func() error { return internal.CloseDB(db) })

	if err := a.build(ctx, cfg, log); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	templateRepo := repositories.NewTemplateRepository(a.DB)
	productRepo := repositories.NewProductRepository(a.DB)
	attachmentRepo := repositories.NewAttachmentRepository(a.DB)
	generationRepo := repositories.NewGenerationRepository(a.DB)
	eventRepo := repositories.NewEventRepository(a.DB)
	settingRepo := repositories.NewSettingRepository(a.DB)

	locker, err := a.locker(cfg.Locks, log)
	if err != nil {
		return err
	}

	a.Registry, err = storage.NewRegistry(settingRepo, storage.DriveFactory, storage.Defaults{
		CredentialsPath: cfg.Drive.CredentialsPath,
		RootFolderID:    cfg.Drive.RootFolderID,
	}, cfg.Drive.ClientCacheSize, log)
	if err != nil {
		return err
	}

	archiver, err := a.archiver(ctx, cfg.Archive, log)
	if err != nil {
		return err
	}

	pdf, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, log)
	if err != nil {
		return fmt.Errorf("failed to initialize PDF service: %w", err)
	}

	recorder := metrics.NewPrometheusRecorder(a.Metrics)
	a.Folders = services.NewFolderProvisioner(locker, log)
	a.Templates = services.NewTemplateService(templateRepo, a.Registry, locker, log)
	a.Attachments = services.NewAttachmentService(attachmentRepo, productRepo, a.Registry, a.Folders, log)
	a.Drive = services.NewDriveSettingsService(settingRepo, a.Registry)
	a.Generations = services.NewGenerationService(services.GenerationDeps{
		Generations: generationRepo,
		Templates:   templateRepo,
		Products:    productRepo,
		Attachments: attachmentRepo,
		Events:      eventRepo,
		Stores:      a.Registry,
		Folders:     a.Folders,
		Converter:   services.NewConverter(pdf, recorder, log),
		Merger:      annex.NewMerger(annex.NewPDFEngine(), log),
		Archive:     archiver,
		Metrics:     recorder,
		Log:         log,
	})
	return nil
}

func (a *App) locker(cfg config.LockConfig, log *zap.SugaredLogger) (locks.Locker, error) {
	switch cfg.Backend {
	case "", "local":
		return locks.NewLocalLocker(), nil
	case "redis":
		ttl, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCK_TTL %q: %w", cfg.TTL, err)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		log.Infow("Using Redis locks", "addr", cfg.RedisAddr)
		return locks.NewRedisLocker(client, "dip:lock:", ttl, log), nil
	default:
		return nil, fmt.Errorf("unsupported LOCK_BACKEND %q", cfg.Backend)
	}
}

func (a *App) archiver(ctx context.Context, cfg config.ArchiveConfig, log *zap.SugaredLogger) (storage.Archiver, error) {
	switch cfg.Backend {
	case "", "none":
		return storage.NoopArchiver{}, nil
	case "gcs":
		gcs, err := storage.NewGCSArchiver(ctx, cfg.GCSBucket, cfg.GCSCredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS archive: %w", err)
		}
		a.closers = append(a.closers, gcs.Close)
		log.Infow("Archiving final PDFs to GCS", "bucket", cfg.GCSBucket)
		return gcs, nil
	case "s3":
		s3, err := storage.NewS3Archiver(storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 archive: %w", err)
		}
		log.Infow("Archiving final PDFs to S3", "bucket", cfg.S3Bucket)
		return s3, nil
	default:
		return nil, fmt.Errorf("unsupported ARCHIVE_BACKEND %q", cfg.Backend)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
