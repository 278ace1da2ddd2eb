package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveRootAlias = "root"

type DriveClient struct {
	service      *drive.Service
	rootFolderID string
}

func NewDriveClient(ctx context.Context, credentialsJSON []byte, rootFolderID string) (*DriveClient, error) {
	service, err := drive.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	if rootFolderID == "" {
		rootFolderID = driveRootAlias
	}

	return &DriveClient{
		service:      service,
		rootFolderID: rootFolderID,
	}, nil
}

func (d *DriveClient) RootFolderID() string {
	return d.rootFolderID
}

func (d *DriveClient) FindFolders(ctx context.Context, parentID, name string) ([]string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parentID), MimeFolder)

	list, err := d.service.Files.List().
		Q(q).
		Fields("files(id, name, createdTime)").
		OrderBy("createdTime").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %q under %s: %w", name, parentID, err)
	}

	ids := make([]string, 0, len(list.Files))
	for _, f := range list.Files {
		// The query is a search; keep only exact name matches.
		if f.Name == name {
			ids = append(ids, f.Id)
		}
	}
	return ids, nil
}

func (d *DriveClient) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	folder := &drive.File{
		Name:     name,
		MimeType: MimeFolder,
		Parents:  []string{parentID},
	}
	created, err := d.service.Files.Create(folder).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q under %s: %w", name, parentID, err)
	}
	return created.Id, nil
}

func (d *DriveClient) Upload(ctx context.Context, f File) (string, error) {
	meta := &drive.File{Name: f.Name}
	parent := f.ParentID
	if parent == "" {
		parent = d.rootFolderID
	}
	meta.Parents = []string{parent}

	call := d.service.Files.Create(meta).
		Media(bytes.NewReader(f.Content), googleapi.ContentType(f.MimeType)).
		Fields("id").
		SupportsAllDrives(true)
	created, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %q to Drive: %w", f.Name, err)
	}
	return created.Id, nil
}

func (d *DriveClient) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := d.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileID, err)
	}
	return data, nil
}

func (d *DriveClient) ExportPDF(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := d.service.Files.Export(fileID, MimePDF).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export %s to PDF: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF export of %s: %w", fileID, err)
	}
	return data, nil
}

func (d *DriveClient) Copy(ctx context.Context, fileID, name, mimeType string) (string, error) {
	copied, err := d.service.Files.Copy(fileID, &drive.File{Name: name, MimeType: mimeType}).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", fileID, err)
	}
	return copied.Id, nil
}

func (d *DriveClient) Delete(ctx context.Context, fileID string) error {
	if err := d.service.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileID, err)
	}
	return nil
}

func (d *DriveClient) GrantPublicRead(ctx context.Context, fileID string) error {
	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := d.service.Permissions.Create(fileID, perm).Fields("id").SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to grant public read on %s: %w", fileID, err)
	}
	return nil
}

func (d *DriveClient) ThumbnailURL(ctx context.Context, fileID string) (string, error) {
	meta, err := d.service.Files.Get(fileID).Fields("thumbnailLink", "webViewLink").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return FallbackThumbnailURL(fileID), fmt.Errorf("failed to read preview links of %s: %w", fileID, err)
	}
	if meta.ThumbnailLink != "" {
		return meta.ThumbnailLink, nil
	}
	if meta.WebViewLink != "" {
		return meta.WebViewLink, nil
	}
	return FallbackThumbnailURL(fileID), nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
