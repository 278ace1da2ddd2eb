package services

import (
	"context"
	"errors"
	"testing"

	"DIP-EASY/internal/models"
	"DIP-EASY/internal/storage"
	"DIP-EASY/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDirectExport(t *testing.T) {
	store := storagetest.New()
	store.ExportFunc = func(storagetest.Entry) ([]byte, error) { return []byte("%PDF"), nil }
	id := store.Put("draft.docx", storage.MimeDOCX, []byte("docx"))
	local := &fakeLocal{}

	res := NewConverter(local, nil, testLog).ConvertToPDF(context.Background(), store, Source{FileID: id, Name: "draft.docx"})

	assert.Equal(t, models.OutcomeOK, res.Outcome)
	assert.Equal(t, PathExport, res.Path)
	assert.Equal(t, []byte("%PDF"), res.Content)
	assert.Zero(t, store.Copies)
	assert.Zero(t, local.calls)
}

func TestConvertThroughTemporaryCopy(t *testing.T) {
	store := storagetest.New()
	store.ExportFunc = func(e storagetest.Entry) ([]byte, error) {
		if e.MimeType == storage.MimeGoogleDoc {
			return []byte("%PDF-copy"), nil
		}
		return nil, errors.New("cannot export docx")
	}
	id := store.Put("draft.docx", storage.MimeDOCX, []byte("docx"))

	res := NewConverter(&fakeLocal{}, nil, testLog).ConvertToPDF(context.Background(), store, Source{FileID: id, Name: "draft"})

	assert.Equal(t, PathCopyExport, res.Path)
	assert.Equal(t, []byte("%PDF-copy"), res.Content)
	assert.Equal(t, 1, store.Copies)
	assert.Equal(t, 1, store.Deletes)
	assert.Equal(t, 1, store.Len(), "temporary copy must be removed")
}

func TestConvertLocallyWithoutLinks(t *testing.T) {
	store := storagetest.New()
	store.FailCopy = errors.New("quota")
	docx := docxWith(t, `<w:p><w:hyperlink r:id="rId5"><w:r><w:t>site</w:t></w:r></w:hyperlink></w:p>`)
	id := store.Put("draft.docx", storage.MimeDOCX, docx)
	local := &fakeLocal{out: []byte("%PDF-local")}

	res := NewConverter(local, nil, testLog).ConvertToPDF(context.Background(), store, Source{FileID: id, Name: "draft.docx"})

	assert.Equal(t, PathLocal, res.Path)
	assert.Equal(t, []byte("%PDF-local"), res.Content)
	require.Equal(t, 1, local.calls)
	assert.NotEqual(t, docx, local.input)
}

func TestConvertWithoutStoreUsesLocal(t *testing.T) {
	local := &fakeLocal{out: []byte("%PDF")}
	docx := docxWith(t, `<w:p><w:r><w:t>plain</w:t></w:r></w:p>`)

	res := NewConverter(local, nil, testLog).ConvertToPDF(context.Background(), nil, Source{Name: "a.docx", Content: docx})

	assert.Equal(t, PathLocal, res.Path)
	assert.Equal(t, models.OutcomeOK, res.Outcome)
}

func TestConvertAllPathsFail(t *testing.T) {
	store := storagetest.New()
	store.FailCopy = errors.New("quota")
	id := store.Put("draft.docx", storage.MimeDOCX, []byte("not really a docx"))
	local := &fakeLocal{err: errors.New("gotenberg down")}

	res := NewConverter(local, nil, testLog).ConvertToPDF(context.Background(), store, Source{FileID: id})

	assert.Equal(t, models.OutcomeFailed, res.Outcome)
	assert.Equal(t, PathNone, res.Path)
	assert.Equal(t, []byte("not really a docx"), res.Content)
	assert.Error(t, res.Err)
	assert.Equal(t, 1, local.calls)
}

func TestConvertNothingToConvert(t *testing.T) {
	res := NewConverter(nil, nil, testLog).ConvertToPDF(context.Background(), nil, Source{})
	assert.Equal(t, models.OutcomeFailed, res.Outcome)
	assert.Error(t, res.Err)
}
