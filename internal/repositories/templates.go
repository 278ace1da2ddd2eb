package repositories

import (
	"context"
	"fmt"
	"strconv"

	"DIP-EASY/internal/models"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) CreateTemplate(ctx context.Context, tpl *models.Template) error {
	return translate(r.db.WithContext(ctx).Create(tpl).Error)
}

func (r *TemplateRepository) CountTemplatesByName(ctx context.Context, name string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Template{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return int(count), nil
}

// MaxTemplateVersion parses versions in Go so the query stays portable across drivers.
func (r *TemplateRepository) MaxTemplateVersion(ctx context.Context, name string) (int, error) {
	var versions []string
	if err := r.db.WithContext(ctx).Model(&models.Template{}).Where("name = ?", name).Pluck("version", &versions).Error; err != nil {
		return 0, fmt.Errorf("failed to list template versions: %w", err)
	}
	max := 0
	for _, v := range versions {
		if n, err := strconv.Atoi(v); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (r *TemplateRepository) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var tpl models.Template
	if err := r.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &tpl, nil
}

func (r *TemplateRepository) ListTemplates(ctx context.Context, offset, limit int) ([]models.Template, error) {
	var templates []models.Template
	query := r.db.WithContext(ctx).Order("name ASC").Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepository) DeleteTemplate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Template{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
