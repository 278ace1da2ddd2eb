package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"DIP-EASY/internal/locks"
	"DIP-EASY/internal/models"
	"DIP-EASY/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxVersionAttempts = 5

type TemplateService struct {
	templates TemplateStore
	stores    StoreProvider
	locker    locks.Locker
	log       *zap.SugaredLogger
}

func NewTemplateService(templates TemplateStore, stores StoreProvider, locker locks.Locker, log *zap.SugaredLogger) *TemplateService {
	return &TemplateService{
		templates: templates,
		stores:    stores,
		locker:    locker,
		log:       log,
	}
}

// Register stores a new version of the named template. Versions are
// sequential per name starting at "1"; identical content still gets a new
// version.
func (s *TemplateService) Register(ctx context.Context, name, driveFileID, thumbnailURL string) (*models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, "template|"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to lock template %q: %w", name, err)
	}
	defer unlock()

	count, err := s.templates.CountTemplatesByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to count template versions: %w", err)
	}
	next := count + 1

	for attempt := 1; attempt <= maxVersionAttempts; attempt++ {
		tpl := &models.Template{
			ID:           uuid.New().String(),
			Name:         name,
			Version:      strconv.Itoa(next),
			DriveFileID:  driveFileID,
			ThumbnailURL: thumbnailURL,
		}
		tpl.ApplyDefaults()

		err := s.templates.CreateTemplate(ctx, tpl)
		if err == nil {
			s.log.Infow("Template registered", "name", name, "version", tpl.Version, "id", tpl.ID)
			return tpl, nil
		}
		if !errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("failed to save template metadata: %w", err)
		}

		// Another writer took this version; continue after the highest one.
		highest, err := s.templates.MaxTemplateVersion(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read latest template version: %w", err)
		}
		s.log.Warnw("Template version taken, retrying", "name", name, "version", next, "attempt", attempt)
		next = highest + 1
	}
	return nil, fmt.Errorf("%w: %q after %d attempts", ErrVersionConflict, name, maxVersionAttempts)
}

// Upload pushes a .docx into the shared store and registers it. An empty
// name falls back to the file name without extension.
func (s *TemplateService) Upload(ctx context.Context, name, filename string, content []byte) (*models.Template, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".docx") {
		return nil, fmt.Errorf("%w: only .docx templates are accepted", ErrInvalidInput)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: template file is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	store, err := s.stores.For(ctx, "")
	if err != nil {
		return nil, err
	}

	fileID, err := store.Upload(ctx, storage.File{Name: filename, MimeType: storage.MimeDOCX, Content: content})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if err := store.GrantPublicRead(ctx, fileID); err != nil {
		s.log.Warnw("Failed to share template", "file_id", fileID, "error", err)
	}
	thumbnail, err := store.ThumbnailURL(ctx, fileID)
	if err != nil {
		s.log.Warnw("Failed to read template thumbnail", "file_id", fileID, "error", err)
	}

	tpl, err := s.Register(ctx, name, fileID, thumbnail)
	if err != nil {
		if delErr := store.Delete(ctx, fileID); delErr != nil {
			s.log.Warnw("Failed to delete orphaned template file", "file_id", fileID, "error", delErr)
		}
		return nil, err
	}
	return tpl, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	tpl, err := s.templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", id, err)
	}
	return tpl, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context, page, limit int) ([]models.Template, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.templates.ListTemplates(ctx, (page-1)*limit, limit)
}

// DeleteTemplate removes the remote file when possible, then the row.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}

	if store, err := s.stores.For(ctx, ""); err != nil {
		s.log.Warnw("Remote store unavailable, keeping template file", "file_id", tpl.DriveFileID, "error", err)
	} else if err := store.Delete(ctx, tpl.DriveFileID); err != nil {
		s.log.Warnw("Failed to delete template file", "file_id", tpl.DriveFileID, "error", err)
	}

	return s.templates.DeleteTemplate(ctx, id)
}
