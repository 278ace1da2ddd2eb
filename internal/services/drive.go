package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"DIP-EASY/internal/models"
)

// ClientCache is the part of the store registry the settings flow drives.
type ClientCache interface {
	Invalidate(tenant string)
	Status(ctx context.Context, tenant string) (configured bool, rootFolderID string, err error)
}

type DriveStatus struct {
	Configured   bool   `json:"configured"`
	RootFolderID string `json:"root_folder_id"`
}

// DriveSettingsService manages the per-tenant Drive credentials and root folder.
type DriveSettingsService struct {
	settings SettingStore
	clients  ClientCache
}

func NewDriveSettingsService(settings SettingStore, clients ClientCache) *DriveSettingsService {
	return &DriveSettingsService{settings: settings, clients: clients}
}

func (s *DriveSettingsService) Status(ctx context.Context, tenant string) (*DriveStatus, error) {
	configured, root, err := s.clients.Status(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return &DriveStatus{Configured: configured, RootFolderID: root}, nil
}

// SetCredentials stores a service-account JSON key for tenant.
func (s *DriveSettingsService) SetCredentials(ctx context.Context, tenant string, credentialsJSON []byte) error {
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(credentialsJSON, &key); err != nil {
		return fmt.Errorf("%w: credentials are not valid JSON: %v", ErrInvalidInput, err)
	}
	if key.ClientEmail == "" {
		return fmt.Errorf("%w: credentials have no client_email", ErrInvalidInput)
	}

	k := models.TenantKey(models.SettingDriveCredentials, tenant)
	if err := s.settings.SetSetting(ctx, k, string(credentialsJSON), "Google Drive service account"); err != nil {
		return fmt.Errorf("failed to save Drive credentials: %w", err)
	}
	s.clients.Invalidate(tenant)
	return nil
}

func (s *DriveSettingsService) SetRootFolder(ctx context.Context, tenant, folderID string) error {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return fmt.Errorf("%w: folder_id is required", ErrInvalidInput)
	}

	k := models.TenantKey(models.SettingDriveRootFolder, tenant)
	if err := s.settings.SetSetting(ctx, k, folderID, "Google Drive root folder"); err != nil {
		return fmt.Errorf("failed to save Drive root folder: %w", err)
	}
	s.clients.Invalidate(tenant)
	return nil
}
