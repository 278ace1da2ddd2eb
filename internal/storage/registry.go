package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"DIP-EASY/internal/models"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SettingsReader resolves per-tenant credentials.
type SettingsReader interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// Factory builds a store for one set of credentials.
type Factory func(ctx context.Context, credentialsJSON []byte, rootFolderID string) (RemoteStore, error)

// DriveFactory is the production Factory.
func DriveFactory(ctx context.Context, credentialsJSON []byte, rootFolderID string) (RemoteStore, error) {
	return NewDriveClient(ctx, credentialsJSON, rootFolderID)
}

// Defaults are used when neither the tenant nor the global settings carry a value.
type Defaults struct {
	CredentialsPath string
	RootFolderID    string
}

type cachedClient struct {
	store       RemoteStore
	fingerprint uint64
}

// Registry hands out one RemoteStore per tenant. Clients are built lazily,
// rebuilt when the resolved credentials change and evicted in LRU order.
type Registry struct {
	settings SettingsReader
	factory  Factory
	defaults Defaults
	cache    *lru.Cache
	group    singleflight.Group
	log      *zap.SugaredLogger
}

func NewRegistry(settings SettingsReader, factory Factory, defaults Defaults, size int, log *zap.SugaredLogger) (*Registry, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create client cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		settings: settings,
		factory:  factory,
		defaults: defaults,
		cache:    cache,
		log:      log,
	}, nil
}

// For returns the store for tenant. The empty tenant uses the global settings.
func (r *Registry) For(ctx context.Context, tenant string) (RemoteStore, error) {
	creds, root, err := r.resolve(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, ErrUnconfigured
	}

	fp := fingerprint(creds, root)
	if v, ok := r.cache.Get(tenant); ok {
		cached := v.(cachedClient)
		if cached.fingerprint == fp {
			return cached.store, nil
		}
		r.cache.Remove(tenant)
	}

	key := tenant + "|" + strconv.FormatUint(fp, 16)
	v, err, _ := r.group.Do(key, func() (any, error) {
		store, err := r.factory(ctx, creds, root)
		if err != nil {
			return nil, err
		}
		r.cache.Add(tenant, cachedClient{store: store, fingerprint: fp})
		r.log.Infow("Remote store client created", "tenant", tenant, "root", store.RootFolderID())
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(RemoteStore), nil
}

// Invalidate drops the cached client for tenant.
func (r *Registry) Invalidate(tenant string) {
	r.cache.Remove(tenant)
}

// Status reports whether the tenant resolves to credentials and which root it uses.
func (r *Registry) Status(ctx context.Context, tenant string) (configured bool, rootFolderID string, err error) {
	creds, root, err := r.resolve(ctx, tenant)
	if err != nil {
		return false, "", err
	}
	return len(creds) > 0, root, nil
}

func (r *Registry) resolve(ctx context.Context, tenant string) ([]byte, string, error) {
	credsValue, err := r.lookup(ctx, models.SettingDriveCredentials, tenant)
	if err != nil {
		return nil, "", err
	}
	root, err := r.lookup(ctx, models.SettingDriveRootFolder, tenant)
	if err != nil {
		return nil, "", err
	}
	if root == "" {
		root = r.defaults.RootFolderID
	}

	if credsValue != "" {
		return []byte(credsValue), root, nil
	}
	if r.defaults.CredentialsPath == "" {
		return nil, root, nil
	}
	creds, err := os.ReadFile(r.defaults.CredentialsPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read Drive credentials file: %w", err)
	}
	return creds, root, nil
}

// lookup reads the tenant key first, then the global key.
func (r *Registry) lookup(ctx context.Context, base, tenant string) (string, error) {
	keys := []string{base}
	if tenant != "" {
		keys = []string{models.TenantKey(base, tenant), base}
	}
	for _, key := range keys {
		value, ok, err := r.settings.GetSetting(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to read setting %s: %w", key, err)
		}
		if ok && value != "" {
			return value, nil
		}
	}
	return "", nil
}

func fingerprint(creds []byte, root string) uint64 {
	h := xxhash.New()
	h.Write(creds)
	h.Write([]byte{0})
	h.WriteString(root)
	return h.Sum64()
}
