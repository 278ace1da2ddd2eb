package services

import (
	"context"
	"fmt"
	"strings"

	"DIP-EASY/internal/locks"
	"DIP-EASY/internal/storage"

	"go.uber.org/zap"
)

// FolderProvisioner resolves folder paths in a remote store, creating the
// missing levels.
type FolderProvisioner struct {
	locker locks.Locker
	log    *zap.SugaredLogger
}

func NewFolderProvisioner(locker locks.Locker, log *zap.SugaredLogger) *FolderProvisioner {
	return &FolderProvisioner{locker: locker, log: log}
}

// EnsureFolder walks path from the store root and returns the id of the
// deepest folder. Each find-or-create step holds a lock on (parent, name)
// so concurrent callers converge on one folder. When duplicates already
// exist, the oldest one wins.
func (p *FolderProvisioner) EnsureFolder(ctx context.Context, store storage.RemoteStore, path []string) (string, error) {
	if store == nil {
		return "", storage.ErrUnconfigured
	}
	if len(path) == 0 {
		return "", ErrEmptyPath
	}
	for i, segment := range path {
		if strings.TrimSpace(segment) == "" {
			return "", fmt.Errorf("%w: segment %d is blank", ErrEmptyPath, i)
		}
	}

	parent := store.RootFolderID()
	for _, segment := range path {
		id, err := p.ensureChild(ctx, store, parent, segment)
		if err != nil {
			return "", err
		}
		parent = id
	}
	return parent, nil
}

func (p *FolderProvisioner) ensureChild(ctx context.Context, store storage.RemoteStore, parent, name string) (string, error) {
	unlock, err := p.locker.Lock(ctx, "folder|"+parent+"|"+name)
	if err != nil {
		return "", fmt.Errorf("failed to lock folder %q: %w", name, err)
	}
	defer unlock()

	ids, err := store.FindFolders(ctx, parent, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if len(ids) > 0 {
		if len(ids) > 1 {
			p.log.Warnw("Duplicate folders found, using the oldest", "parent", parent, "name", name, "count", len(ids))
		}
		return ids[0], nil
	}

	id, err := store.CreateFolder(ctx, parent, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	p.log.Debugw("Folder created", "parent", parent, "name", name, "id", id)
	return id, nil
}
