package services

import (
	"archive/zip"
	"bytes"
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"DIP-EASY/internal/annex"
	"DIP-EASY/internal/locks"
	"DIP-EASY/internal/models"
	"DIP-EASY/internal/storage"
	"DIP-EASY/internal/storage/storagetest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testLog = zap.NewNop().Sugar()

type memTemplates struct {
	mu      sync.Mutex
	rows    map[string]*models.Template
	creates int
	// failCreates makes the first n creates fail with ErrDuplicate.
	failCreates int
}

func newMemTemplates() *memTemplates {
	return &memTemplates{rows: map[string]*models.Template{}}
}

func (m *memTemplates) CreateTemplate(_ context.Context, tpl *models.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.failCreates > 0 {
		m.failCreates--
		return models.ErrDuplicate
	}
	for _, r := range m.rows {
		if r.Name == tpl.Name && r.Version == tpl.Version {
			return models.ErrDuplicate
		}
	}
	cp := *tpl
	m.rows[tpl.ID] = &cp
	return nil
}

func (m *memTemplates) CountTemplatesByName(_ context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.Name == name {
			n++
		}
	}
	return n, nil
}

func (m *memTemplates) MaxTemplateVersion(_ context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	highest := 0
	for _, r := range m.rows {
		if v, err := strconv.Atoi(r.Version); err == nil && r.Name == name && v > highest {
			highest = v
		}
	}
	return highest, nil
}

func (m *memTemplates) GetTemplate(_ context.Context, id string) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memTemplates) ListTemplates(_ context.Context, offset, limit int) ([]models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Template
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *memTemplates) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTemplates) versions(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.rows {
		if r.Name == name {
			out = append(out, r.Version)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i])
		b, _ := strconv.Atoi(out[j])
		return a < b
	})
	return out
}

type memProducts struct {
	mu         sync.Mutex
	rows       map[string]*models.Product
	failStatus error
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{rows: map[string]*models.Product{}}
	for _, p := range products {
		m.rows[p.ID] = p
	}
	return m
}

func (m *memProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) UpdateProductStatus(_ context.Context, id string, status models.ProductStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStatus != nil {
		return m.failStatus
	}
	p, ok := m.rows[id]
	if !ok {
		return models.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memProducts) UpdateProductFolder(_ context.Context, id, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.ErrNotFound
	}
	p.DriveFolderID = folderID
	return nil
}

type memAttachments struct {
	mu   sync.Mutex
	rows []models.Attachment
}

func (m *memAttachments) CreateAttachment(_ context.Context, a *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAttachments) GetAttachment(_ context.Context, id string) (*models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memAttachments) ListAttachmentsByProduct(_ context.Context, productID string) ([]models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Attachment
	for _, a := range m.rows {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAttachments) DeleteAttachment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

type memGenerations struct {
	mu      sync.Mutex
	rows    map[string]models.Generation
	updates int
}

func newMemGenerations() *memGenerations {
	return &memGenerations{rows: map[string]models.Generation{}}
}

func (m *memGenerations) CreateGeneration(_ context.Context, g *models.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[g.ID] = *g
	return nil
}

func (m *memGenerations) GetGeneration(_ context.Context, id string) (*models.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &g, nil
}

func (m *memGenerations) ListGenerations(_ context.Context, productID string) ([]models.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Generation
	for _, g := range m.rows {
		if productID == "" || g.ProductID == productID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGenerations) ListStalePending(_ context.Context, cutoff time.Time) ([]models.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Generation
	for _, g := range m.rows {
		if g.Status == models.StatusPending && g.InitiatedAt.Before(cutoff) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.Before(out[j].InitiatedAt) })
	return out, nil
}

func (m *memGenerations) UpdateGeneration(_ context.Context, g *models.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.rows[g.ID] = *g
	return nil
}

func (m *memGenerations) DeleteGeneration(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memEvents struct {
	mu   sync.Mutex
	rows []models.GenerationEvent
}

func (m *memEvents) CreateEvent(_ context.Context, e *models.GenerationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memEvents) ListEvents(_ context.Context, generationID string) ([]models.GenerationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GenerationEvent
	for _, e := range m.rows {
		if e.GenerationID == generationID {
			out = append(out, e)
		}
	}
	return out, nil
}

// singleStore serves the same store to every tenant.
type singleStore struct {
	store storage.RemoteStore
	err   error
}

func (s singleStore) For(context.Context, string) (storage.RemoteStore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.store, nil
}

type fakeLocal struct {
	calls int
	input []byte
	out   []byte
	err   error
}

func (f *fakeLocal) ConvertDocxToPDF(_ context.Context, docx []byte, _ string) ([]byte, error) {
	f.calls++
	f.input = docx
	return f.out, f.err
}

// pageEngine treats a PDF as page texts separated by form feeds.
type pageEngine struct{}

func (pageEngine) PageTexts(d []byte) ([]string, error) {
	return splitPages(d), nil
}

func (pageEngine) SplitPages(d []byte) ([][]byte, error) {
	var out [][]byte
	for _, p := range splitPages(d) {
		out = append(out, []byte(p))
	}
	return out, nil
}

func (pageEngine) Concat(pages [][]byte) ([]byte, error) {
	return bytes.Join(pages, []byte("\f")), nil
}

func splitPages(d []byte) []string {
	var out []string
	for _, p := range bytes.Split(d, []byte("\f")) {
		out = append(out, string(p))
	}
	return out
}

var _ annex.Engine = pageEngine{}

func docxWith(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fixture struct {
	store       *storagetest.MemStore
	templates   *memTemplates
	products    *memProducts
	attachments *memAttachments
	generations *memGenerations
	events      *memEvents
	local       *fakeLocal
	folders     *FolderProvisioner
	svc         *GenerationService
}

func newFixture(t *testing.T, products ...*models.Product) *fixture {
	t.Helper()
	f := &fixture{
		store:       storagetest.New(),
		templates:   newMemTemplates(),
		products:    newMemProducts(products...),
		attachments: &memAttachments{},
		generations: newMemGenerations(),
		events:      &memEvents{},
		local:       &fakeLocal{err: context.DeadlineExceeded},
	}
	f.folders = NewFolderProvisioner(locks.NewLocalLocker(), testLog)
	f.svc = NewGenerationService(GenerationDeps{
		Generations: f.generations,
		Templates:   f.templates,
		Products:    f.products,
		Attachments: f.attachments,
		Events:      f.events,
		Stores:      singleStore{store: f.store},
		Folders:     f.folders,
		Converter:   NewConverter(f.local, nil, testLog),
		Merger:      annex.NewMerger(pageEngine{}, testLog),
		Log:         testLog,
	})
	return f
}

// addTemplate stores a template file and its row.
func (f *fixture) addTemplate(t *testing.T, content []byte) *models.Template {
	t.Helper()
	tpl := &models.Template{ID: "tpl-1", Name: "DIP", Version: "1", DriveFileID: f.store.Put("dip.docx", storage.MimeDOCX, content)}
	tpl.ApplyDefaults()
	require.NoError(t, f.templates.CreateTemplate(context.Background(), tpl))
	return tpl
}
