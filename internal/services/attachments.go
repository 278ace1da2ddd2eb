package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"DIP-EASY/internal/models"
	"DIP-EASY/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// aliasByField fixes the annex alias of well-known upload fields.
var aliasByField = map[string]string{
	"formula": "ingredients",
	"spf":     "test_spf",
}

func AliasForField(fieldKey string) string {
	if alias, ok := aliasByField[fieldKey]; ok {
		return alias
	}
	return fieldKey
}

type AttachmentService struct {
	attachments AttachmentStore
	products    ProductStore
	stores      StoreProvider
	folders     *FolderProvisioner
	log         *zap.SugaredLogger
}

func NewAttachmentService(attachments AttachmentStore, products ProductStore, stores StoreProvider, folders *FolderProvisioner, log *zap.SugaredLogger) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		products:    products,
		stores:      stores,
		folders:     folders,
		log:         log,
	}
}

// Upload stores the file in the product Annexes folder as <alias><ext>.
func (s *AttachmentService) Upload(ctx context.Context, productID, fieldKey, filename, mimeType string, content []byte) (*models.Attachment, error) {
	fieldKey = strings.TrimSpace(fieldKey)
	if fieldKey == "" {
		return nil, fmt.Errorf("%w: field_key is required", ErrInvalidInput)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: attachment file is empty", ErrInvalidInput)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	store, err := s.stores.For(ctx, product.UserID)
	if err != nil {
		return nil, err
	}
	folderID, err := s.folders.EnsureFolder(ctx, store, product.AnnexFolderPath())
	if err != nil {
		return nil, err
	}

	alias := AliasForField(fieldKey)
	storedName := alias + filepath.Ext(filename)
	fileID, err := store.Upload(ctx, storage.File{
		Name:     storedName,
		MimeType: mimeType,
		ParentID: folderID,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: attachment upload: %v", ErrRemoteUnavailable, err)
	}
	if err := store.GrantPublicRead(ctx, fileID); err != nil {
		s.log.Warnw("Failed to share attachment", "file_id", fileID, "error", err)
	}
	url, err := store.ThumbnailURL(ctx, fileID)
	if err != nil {
		s.log.Warnw("Failed to read attachment thumbnail", "file_id", fileID, "error", err)
	}
	if url == "" {
		url = storage.FallbackThumbnailURL(fileID)
	}

	attachment := &models.Attachment{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		FieldKey:    fieldKey,
		Alias:       alias,
		FileName:    storedName,
		MimeType:    mimeType,
		DriveFileID: fileID,
		URL:         url,
		UploadedAt:  time.Now(),
	}
	if err := s.attachments.CreateAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	return attachment, nil
}

func (s *AttachmentService) ListByProduct(ctx context.Context, productID string) ([]models.Attachment, error) {
	return s.attachments.ListAttachmentsByProduct(ctx, productID)
}

// Delete removes the remote copy when possible, then the row.
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	attachment, err := s.attachments.GetAttachment(ctx, id)
	if err != nil {
		return fmt.Errorf("attachment %s: %w", id, err)
	}

	if attachment.DriveFileID != "" {
		if err := s.deleteRemote(ctx, attachment); err != nil {
			s.log.Warnw("Failed to delete attachment file", "attachment_id", id, "file_id", attachment.DriveFileID, "error", err)
		}
	}
	return s.attachments.DeleteAttachment(ctx, id)
}

func (s *AttachmentService) deleteRemote(ctx context.Context, attachment *models.Attachment) error {
	product, err := s.products.GetProduct(ctx, attachment.ProductID)
	if err != nil {
		return err
	}
	store, err := s.stores.For(ctx, product.UserID)
	if err != nil {
		return err
	}
	return store.Delete(ctx, attachment.DriveFileID)
}
