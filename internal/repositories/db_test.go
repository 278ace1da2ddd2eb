package repositories

import (
	"errors"
	"fmt"
	"testing"

	"DIP-EASY/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, models.ErrNotFound},
		{"wrapped record not found", fmt.Errorf("load template: %w", gorm.ErrRecordNotFound), models.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, models.ErrDuplicate},
		{"wrapped duplicated key", fmt.Errorf("insert version: %w", gorm.ErrDuplicatedKey), models.ErrDuplicate},
		{"other errors pass through", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
