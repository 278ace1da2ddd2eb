package repositories

import (
	"context"
	"fmt"
	"time"

	"DIP-EASY/internal/models"

	"gorm.io/gorm"
)

type GenerationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) CreateGeneration(ctx context.Context, g *models.Generation) error {
	return translate(r.db.WithContext(ctx).Create(g).Error)
}

func (r *GenerationRepository) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	var g models.Generation
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *GenerationRepository) ListGenerations(ctx context.Context, productID string) ([]models.Generation, error) {
	var generations []models.Generation
	query := r.db.WithContext(ctx).Order("initiated_at DESC")
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	if err := query.Find(&generations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch generations: %w", err)
	}
	return generations, nil
}

// ListStalePending returns pending generations initiated before cutoff, oldest first.
func (r *GenerationRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Generation, error) {
	var generations []models.Generation
	err := r.db.WithContext(ctx).
		Where("status = ? AND initiated_at < ?", models.StatusPending, cutoff).
		Order("initiated_at ASC").
		Find(&generations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stale generations: %w", err)
	}
	return generations, nil
}

func (r *GenerationRepository) UpdateGeneration(ctx context.Context, g *models.Generation) error {
	return translate(r.db.WithContext(ctx).Save(g).Error)
}

func (r *GenerationRepository) DeleteGeneration(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Generation{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
