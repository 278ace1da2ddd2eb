package repositories

import (
	"context"
	"fmt"

	"DIP-EASY/internal/models"

	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) CreateAttachment(ctx context.Context, a *models.Attachment) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *AttachmentRepository) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	var a models.Attachment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListAttachmentsByProduct returns attachments in upload order.
func (r *AttachmentRepository) ListAttachmentsByProduct(ctx context.Context, productID string) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("uploaded_at ASC").Find(&attachments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch attachments: %w", err)
	}
	return attachments, nil
}

func (r *AttachmentRepository) DeleteAttachment(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Attachment{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
