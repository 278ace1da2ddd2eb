package repositories

import (
	"context"

	"DIP-EASY/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *ProductRepository) UpdateProductFolder(ctx context.Context, id, folderID string) error {
	return r.updateColumn(ctx, id, "drive_folder_id", folderID)
}

func (r *ProductRepository) updateColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
