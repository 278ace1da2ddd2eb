package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"DIP-EASY/internal/models"
	"DIP-EASY/internal/processor"
	"DIP-EASY/internal/storage"
	"DIP-EASY/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draftPDF = "page one\fpage two [[ANNEXE:ingredients]]"

func completeProduct() *models.Product {
	market := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.Product{
		ID:             "p-1",
		UserID:         "u-1",
		ClientName:     "ClientA",
		ProductName:    "ProdB",
		FormulaRef:     "REF1",
		CommercialName: "Crème Douce",
		Supplier:       "LabCos",
		MarketDate:     &market,
		MarketOwner:    "Dr Skin",
		Packaging:      "Flacon 100ml",
		Status:         models.ProductDraft,
	}
}

func documentXML(t *testing.T, docx []byte) string {
	t.Helper()
	pkg, err := processor.OpenPackage(docx)
	require.NoError(t, err)
	doc, ok := pkg.Part("word/document.xml")
	require.True(t, ok)
	return string(doc)
}

// exportDrafts makes every docx export to the given page texts.
func exportDrafts(store *storagetest.MemStore, pdf string) {
	store.ExportFunc = func(e storagetest.Entry) ([]byte, error) {
		if e.MimeType == storage.MimeDOCX {
			return []byte(pdf), nil
		}
		return nil, errors.New("unsupported")
	}
}

func (f *fixture) create(t *testing.T) *models.Generation {
	t.Helper()
	tpl := f.addTemplate(t, docxWith(t, `<w:p><w:r><w:t>{{.nom_commercial}} https://example.com/fds</w:t></w:r></w:p>`))
	gen, err := f.svc.Create(context.Background(), tpl.ID, "p-1")
	require.NoError(t, err)
	return gen
}

func TestCreateStoresDraftInFormulaFolder(t *testing.T) {
	product := completeProduct()
	f := newFixture(t, product)

	gen := f.create(t)

	assert.Equal(t, models.StatusPending, gen.Status)
	assert.Equal(t, models.FormatDOCX, gen.Format)
	assert.Equal(t, models.OutcomeOK, gen.RenderOutcome)
	assert.Nil(t, gen.CompletedAt)

	draft, ok := f.store.Get(gen.DriveFileID)
	require.True(t, ok)
	assert.Equal(t, "ProdB.docx", draft.Name)
	assert.True(t, draft.Public)

	folder, _ := f.store.Get(draft.ParentID)
	assert.Equal(t, "REF1", folder.Name)
	assert.Equal(t, draft.ParentID, product.DriveFolderID)
	assert.Equal(t, 3, f.store.FoldersCreated)

	body := documentXML(t, draft.Content)
	assert.Contains(t, body, "Crème Douce https://example.com/fds")
	assert.Contains(t, body, "<w:hyperlink")

	events, err := f.svc.ListEvents(context.Background(), gen.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "create", events[0].Event)
	assert.Equal(t, "pending", events[0].ToState)
}

func TestCreateReusesFolders(t *testing.T) {
	f := newFixture(t, completeProduct())
	tpl := f.addTemplate(t, docxWith(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`))

	first, err := f.svc.Create(context.Background(), tpl.ID, "p-1")
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), tpl.ID, "p-1")
	require.NoError(t, err)

	a, _ := f.store.Get(first.DriveFileID)
	b, _ := f.store.Get(second.DriveFileID)
	assert.Equal(t, a.ParentID, b.ParentID)
	assert.Equal(t, 3, f.store.FoldersCreated)
}

func TestCreateKeepsUnrenderableTemplate(t *testing.T) {
	f := newFixture(t, completeProduct())
	tpl := f.addTemplate(t, []byte("not a zip"))

	gen, err := f.svc.Create(context.Background(), tpl.ID, "p-1")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDegraded, gen.RenderOutcome)
	draft, _ := f.store.Get(gen.DriveFileID)
	assert.Equal(t, []byte("not a zip"), draft.Content)
}

func TestCreateErrors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, completeProduct())
	_, err := f.svc.Create(ctx, "missing", "p-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	tpl := f.addTemplate(t, nil)
	_, err = f.svc.Create(ctx, tpl.ID, "p-1")
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	_, err = f.svc.Create(ctx, tpl.ID, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, f.store.Uploads)
}

func TestValidateProducesMergedPDF(t *testing.T) {
	ctx := context.Background()
	product := completeProduct()
	f := newFixture(t, product)
	exportDrafts(f.store, draftPDF)
	annexID := f.store.Put("ingredients.pdf", storage.MimePDF, []byte("annex A1\fannex A2"))
	require.NoError(t, f.attachments.CreateAttachment(ctx, &models.Attachment{
		ID: "a-1", ProductID: "p-1", FieldKey: "formula", Alias: "ingredients",
		FileName: "ingredients.pdf", MimeType: storage.MimePDF, DriveFileID: annexID,
	}))
	gen := f.create(t)

	validated, err := f.svc.Validate(ctx, gen.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, validated.Status)
	assert.Equal(t, models.FormatPDF, validated.Format)
	assert.Equal(t, models.OutcomeOK, validated.MergeOutcome)
	require.NotNil(t, validated.CompletedAt)

	final, ok := f.store.Get(validated.DriveFileID)
	require.True(t, ok)
	assert.Equal(t, "ProdB.pdf", final.Name)
	assert.Equal(t, storage.MimePDF, final.MimeType)
	assert.Equal(t, "page one\fpage two [[ANNEXE:ingredients]]\fannex A1\fannex A2", string(final.Content))

	assert.Equal(t, models.ProductValidated, product.Status)

	events, err := f.svc.ListEvents(ctx, gen.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "validate", events[1].Event)
	assert.Equal(t, "pending", events[1].FromState)
	assert.Equal(t, "success", events[1].ToState)
	assert.Equal(t, "conversion=export merge=ok", events[1].Detail)
}

func TestValidateTwiceUploadsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, completeProduct())
	exportDrafts(f.store, draftPDF)
	gen := f.create(t)

	first, err := f.svc.Validate(ctx, gen.ID)
	require.NoError(t, err)
	uploads, exports, updates := f.store.Uploads, f.store.Exports, f.generations.updates

	second, err := f.svc.Validate(ctx, gen.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uploads, f.store.Uploads)
	assert.Equal(t, exports, f.store.Exports)
	assert.Equal(t, updates, f.generations.updates)
	assert.Equal(t, models.OutcomeSkipped, second.MergeOutcome)
}

func TestValidateKeepsIncompleteProductInDraft(t *testing.T) {
	product := completeProduct()
	product.Supplier = ""
	f := newFixture(t, product)
	exportDrafts(f.store, "single page")
	gen := f.create(t)

	_, err := f.svc.Validate(context.Background(), gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductDraft, product.Status)
}

func TestValidateIgnoresPromotionFailure(t *testing.T) {
	f := newFixture(t, completeProduct())
	f.products.failStatus = errors.New("db down")
	exportDrafts(f.store, "single page")
	gen := f.create(t)

	validated, err := f.svc.Validate(context.Background(), gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, validated.Status)
}

func TestValidateConversionFailureKeepsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, completeProduct())
	gen := f.create(t)

	_, err := f.svc.Validate(ctx, gen.ID)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	stored, err := f.svc.GetGeneration(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 1, f.local.calls)

	events, err := f.svc.ListEvents(ctx, gen.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "convert_failed", events[1].Event)
	assert.Equal(t, "pending", events[1].FromState)
	assert.Equal(t, "pending", events[1].ToState)
	assert.Contains(t, events[1].Detail, "conversion failed")
}

func TestValidateUploadFailureMarksError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, completeProduct())
	exportDrafts(f.store, "single page")
	gen := f.create(t)
	f.store.FailUpload = errors.New("quota exceeded")

	_, err := f.svc.Validate(ctx, gen.ID)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	stored, err := f.svc.GetGeneration(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "quota exceeded")

	_, err = f.svc.Validate(ctx, gen.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFinalizeReplacesFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, completeProduct())
	gen := f.create(t)

	done, err := f.svc.Finalize(ctx, gen.ID, "DIP final.pdf", []byte("%PDF-final"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, done.Status)
	assert.Equal(t, models.FormatDOCX, done.Format)
	assert.NotEqual(t, gen.DriveFileID, done.DriveFileID)
	final, _ := f.store.Get(done.DriveFileID)
	assert.Equal(t, storage.MimePDF, final.MimeType)

	again, err := f.svc.Finalize(ctx, gen.ID, "v2.docx", []byte("docx"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, again.Status)

	_, err = f.svc.Finalize(ctx, gen.ID, "empty.pdf", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFailedGenerationCannotMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, completeProduct())
	gen := f.create(t)

	failed, err := f.svc.Fail(ctx, gen.ID, "rejected")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, failed.Status)

	_, err = f.svc.Fail(ctx, gen.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Finalize(ctx, gen.ID, "x.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteGenerationIgnoresRemoteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, completeProduct())
	gen := f.create(t)
	f.store.FailDelete = errors.New("drive down")

	require.NoError(t, f.svc.DeleteGeneration(ctx, gen.ID))

	_, err := f.svc.GetGeneration(ctx, gen.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, f.store.Deletes)
}
