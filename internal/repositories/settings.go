package repositories

import (
	"context"
	"errors"

	"DIP-EASY/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetSetting reports ok=false when the key is absent.
func (r *SettingRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var s models.Setting
	err := r.db.WithContext(ctx).Where(&models.Setting{Key: key}).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *SettingRepository) SetSetting(ctx context.Context, key, value, description string) error {
	s := models.Setting{
		ID:          uuid.New().String(),
		Key:         key,
		Value:       value,
		Description: description,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(&s).Error
}
