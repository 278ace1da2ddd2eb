// Package storagetest provides an in-memory RemoteStore for tests.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"DIP-EASY/internal/storage"
)

type Entry struct {
	ID       string
	Name     string
	MimeType string
	ParentID string
	Content  []byte
	Created  int
	Folder   bool
	Public   bool
}

// MemStore is a goroutine-safe RemoteStore. Failure fields make the
// matching operation return an error.
type MemStore struct {
	mu      sync.Mutex
	root    string
	seq     int
	entries map[string]*Entry

	FoldersCreated int
	Uploads        int
	Deletes        int
	Exports        int
	Copies         int

	// ExportFunc overrides ExportPDF when set. It receives the entry.
	ExportFunc   func(e Entry) ([]byte, error)
	FailCopy     error
	FailDelete   error
	FailUpload   error
	FailDownload error
}

func New() *MemStore {
	return &MemStore{root: "root", entries: map[string]*Entry{}}
}

func (m *MemStore) RootFolderID() string { return m.root }

func (m *MemStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *MemStore) FindFolders(_ context.Context, parentID, name string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found []*Entry
	for _, e := range m.entries {
		if e.Folder && e.ParentID == parentID && e.Name == name {
			found = append(found, e)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Created < found[j].Created })

	ids := make([]string, 0, len(found))
	for _, e := range found {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (m *MemStore) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID("folder")
	m.entries[id] = &Entry{ID: id, Name: name, MimeType: storage.MimeFolder, ParentID: parentID, Created: m.seq, Folder: true}
	m.FoldersCreated++
	return id, nil
}

// AddFolder inserts a folder without counting it as created.
func (m *MemStore) AddFolder(parentID, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID("folder")
	m.entries[id] = &Entry{ID: id, Name: name, MimeType: storage.MimeFolder, ParentID: parentID, Created: m.seq, Folder: true}
	return id
}

func (m *MemStore) Upload(_ context.Context, f storage.File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpload != nil {
		return "", m.FailUpload
	}
	parent := f.ParentID
	if parent == "" {
		parent = m.root
	}
	id := m.nextID("file")
	m.entries[id] = &Entry{ID: id, Name: f.Name, MimeType: f.MimeType, ParentID: parent, Content: append([]byte(nil), f.Content...), Created: m.seq}
	m.Uploads++
	return id, nil
}

// Put inserts a file without counting it as an upload.
func (m *MemStore) Put(name, mimeType string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID("file")
	m.entries[id] = &Entry{ID: id, Name: name, MimeType: mimeType, ParentID: m.root, Content: content, Created: m.seq}
	return id
}

func (m *MemStore) Download(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDownload != nil {
		return nil, m.FailDownload
	}
	e, ok := m.entries[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return append([]byte(nil), e.Content...), nil
}

func (m *MemStore) ExportPDF(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Exports++
	e, ok := m.entries[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	if m.ExportFunc != nil {
		return m.ExportFunc(*e)
	}
	return nil, fmt.Errorf("export of %s not supported", e.MimeType)
}

func (m *MemStore) Copy(_ context.Context, fileID, name, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Copies++
	if m.FailCopy != nil {
		return "", m.FailCopy
	}
	e, ok := m.entries[fileID]
	if !ok {
		return "", fmt.Errorf("file %s not found", fileID)
	}
	id := m.nextID("file")
	m.entries[id] = &Entry{ID: id, Name: name, MimeType: mimeType, ParentID: e.ParentID, Content: e.Content, Created: m.seq}
	return id, nil
}

func (m *MemStore) Delete(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deletes++
	if m.FailDelete != nil {
		return m.FailDelete
	}
	if _, ok := m.entries[fileID]; !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	delete(m.entries, fileID)
	return nil
}

func (m *MemStore) GrantPublicRead(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[fileID]
	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	e.Public = true
	return nil
}

func (m *MemStore) ThumbnailURL(_ context.Context, fileID string) (string, error) {
	return storage.FallbackThumbnailURL(fileID), nil
}

// Get returns a copy of the entry with id.
func (m *MemStore) Get(id string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Children lists entries directly under parentID, oldest first.
func (m *MemStore) Children(parentID string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for _, e := range m.entries {
		if e.ParentID == parentID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created < out[j].Created })
	return out
}

// Len counts stored entries, folders included.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ storage.RemoteStore = (*MemStore)(nil)
