package repositories

import (
	"context"
	"fmt"

	"DIP-EASY/internal/models"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) CreateEvent(ctx context.Context, e *models.GenerationEvent) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *EventRepository) ListEvents(ctx context.Context, generationID string) ([]models.GenerationEvent, error) {
	var events []models.GenerationEvent
	if err := r.db.WithContext(ctx).Where("generation_id = ?", generationID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch generation events: %w", err)
	}
	return events, nil
}
