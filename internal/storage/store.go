package storage

import (
	"context"
	"errors"
)

// ErrUnconfigured is returned when no credentials exist for a tenant.
var ErrUnconfigured = errors.New("remote store not configured")

const (
	MimeFolder    = "application/vnd.google-apps.folder"
	MimeGoogleDoc = "application/vnd.google-apps.document"
	MimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePDF       = "application/pdf"
)

// File is an upload request.
type File struct {
	Name     string
	MimeType string
	ParentID string // empty uploads into the store root
	Content  []byte
}

// RemoteStore is the hierarchical file store holding templates, drafts,
// final PDFs and annexes.
type RemoteStore interface {
	// RootFolderID is the folder that provisioning starts from.
	RootFolderID() string
	// FindFolders lists non-trashed folder children of parentID named exactly
	// name, oldest first.
	FindFolders(ctx context.Context, parentID, name string) ([]string, error)
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
	Upload(ctx context.Context, f File) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	ExportPDF(ctx context.Context, fileID string) ([]byte, error)
	Copy(ctx context.Context, fileID, name, mimeType string) (string, error)
	Delete(ctx context.Context, fileID string) error
	GrantPublicRead(ctx context.Context, fileID string) error
	ThumbnailURL(ctx context.Context, fileID string) (string, error)
}

// FallbackThumbnailURL is used when the store cannot report a preview link.
func FallbackThumbnailURL(fileID string) string {
	return "https://drive.google.com/thumbnail?id=" + fileID
}
