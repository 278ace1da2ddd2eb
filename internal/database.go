package internal

import (
	"fmt"

	"DIP-EASY/internal/config"
	"DIP-EASY/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config, log *zap.SugaredLogger) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Infow("Database connected", "driver", cfg.Database.Driver, "host", cfg.Database.Host)
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB, log *zap.SugaredLogger) error {
	tables := []any{
		&models.Template{},
		&models.Product{},
		&models.Attachment{},
		&models.Generation{},
		&models.GenerationEvent{},
		&models.Setting{},
	}
	for _, table := range tables {
		if err := db.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", table, err)
		}
	}

	if err := ensureTemplateDefaults(db); err != nil {
		return err
	}

	log.Info("Tables created/verified successfully")
	return nil
}

// ensureTemplateDefaults backfills rows written before toc/style_config existed.
func ensureTemplateDefaults(db *gorm.DB) error {
	if err := db.Exec(`UPDATE templates SET toc = '[]' WHERE toc IS NULL`).Error; err != nil {
		return fmt.Errorf("failed to backfill templates.toc: %w", err)
	}
	if err := db.Exec(`UPDATE templates SET style_config = '{}' WHERE style_config IS NULL`).Error; err != nil {
		return fmt.Errorf("failed to backfill templates.style_config: %w", err)
	}
	return nil
}

func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
