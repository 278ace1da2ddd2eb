package repositories

import (
	"errors"

	"DIP-EASY/internal/models"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the model sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.ErrDuplicate
	default:
		return err
	}
}
