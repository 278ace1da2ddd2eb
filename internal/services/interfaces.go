package services

import (
	"context"
	"time"

	"DIP-EASY/internal/models"
	"DIP-EASY/internal/storage"
)

type TemplateStore interface {
	CreateTemplate(ctx context.Context, tpl *models.Template) error
	CountTemplatesByName(ctx context.Context, name string) (int, error)
	MaxTemplateVersion(ctx context.Context, name string) (int, error)
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	ListTemplates(ctx context.Context, offset, limit int) ([]models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) error
	UpdateProductFolder(ctx context.Context, id, folderID string) error
}

type AttachmentStore interface {
	CreateAttachment(ctx context.Context, a *models.Attachment) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	ListAttachmentsByProduct(ctx context.Context, productID string) ([]models.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

type GenerationStore interface {
	CreateGeneration(ctx context.Context, g *models.Generation) error
	GetGeneration(ctx context.Context, id string) (*models.Generation, error)
	ListGenerations(ctx context.Context, productID string) ([]models.Generation, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Generation, error)
	UpdateGeneration(ctx context.Context, g *models.Generation) error
	DeleteGeneration(ctx context.Context, id string) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, e *models.GenerationEvent) error
	ListEvents(ctx context.Context, generationID string) ([]models.GenerationEvent, error)
}

type SettingStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value, description string) error
}

// StoreProvider resolves the remote store of a tenant. The empty tenant is
// the shared store holding templates.
type StoreProvider interface {
	For(ctx context.Context, tenant string) (storage.RemoteStore, error)
}
