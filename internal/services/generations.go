package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"DIP-EASY/internal/annex"
	"DIP-EASY/internal/metrics"
	"DIP-EASY/internal/models"
	"DIP-EASY/internal/processor"
	"DIP-EASY/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GenerationDeps struct {
	Generations GenerationStore
	Templates   TemplateStore
	Products    ProductStore
	Attachments AttachmentStore
	Events      EventStore
	Stores      StoreProvider
	Folders     *FolderProvisioner
	Converter   *Converter
	Merger      *annex.Merger
	Archive     storage.Archiver
	Metrics     metrics.Recorder
	Log         *zap.SugaredLogger
}

// GenerationService renders drafts from templates and turns them into the
// final dossier PDF.
type GenerationService struct {
	GenerationDeps
	now func() time.Time
}

func NewGenerationService(deps GenerationDeps) *GenerationService {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NoopRecorder{}
	}
	if deps.Archive == nil {
		deps.Archive = storage.NoopArchiver{}
	}
	return &GenerationService{GenerationDeps: deps, now: time.Now}
}

// Create renders the template against the product and stores the draft in
// the product formula folder as a pending docx generation.
func (s *GenerationService) Create(ctx context.Context, templateID, productID string) (*models.Generation, error) {
	start := s.now()
	defer func() { s.Metrics.ObserveStageDuration(metrics.StageCreate, time.Since(start)) }()

	tpl, err := s.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	product, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}

	shared, err := s.Stores.For(ctx, "")
	if err != nil {
		return nil, err
	}
	templateBytes, err := shared.Download(ctx, tpl.DriveFileID)
	if err != nil {
		return nil, fmt.Errorf("%w: template download: %v", ErrRemoteUnavailable, err)
	}
	if len(templateBytes) == 0 {
		return nil, fmt.Errorf("%w: template %s is empty", ErrRemoteUnavailable, tpl.ID)
	}

	attachments, err := s.Attachments.ListAttachmentsByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	rendered := processor.Render(templateBytes, renderContext(product, attachments))
	s.Metrics.IncStageOutcome(metrics.StageRender, rendered.Outcome)
	if rendered.Degraded() {
		s.Log.Warnw("Render failed, storing the unrendered template", "template_id", tpl.ID, "product_id", product.ID, "error", rendered.Err)
	}

	draft, err := processor.MakeClickable(rendered.Content)
	if err != nil {
		s.Log.Warnw("Failed to make links clickable", "template_id", tpl.ID, "error", err)
		s.Metrics.IncStageOutcome(metrics.StageLinks, models.OutcomeDegraded)
		draft = rendered.Content
	} else {
		s.Metrics.IncStageOutcome(metrics.StageLinks, models.OutcomeOK)
	}

	store, err := s.Stores.For(ctx, product.UserID)
	if err != nil {
		return nil, err
	}
	folderID, err := s.formulaFolder(ctx, store, product)
	if err != nil {
		return nil, err
	}
	fileID, err := store.Upload(ctx, storage.File{
		Name:     baseName(product) + ".docx",
		MimeType: storage.MimeDOCX,
		ParentID: folderID,
		Content:  draft,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: draft upload: %v", ErrRemoteUnavailable, err)
	}
	s.share(ctx, store, fileID)

	gen := &models.Generation{
		ID:            uuid.New().String(),
		ProductID:     product.ID,
		TemplateID:    tpl.ID,
		Format:        models.FormatDOCX,
		Status:        models.StatusPending,
		DriveFileID:   fileID,
		RenderOutcome: rendered.Outcome,
		InitiatedAt:   s.now(),
	}
	if err := s.Generations.CreateGeneration(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to save generation: %w", err)
	}
	s.recordEvents(ctx, newEvent(gen.ID, eventCreate, "", string(gen.Status), "template "+tpl.Name+" v"+tpl.Version))
	s.Metrics.IncTransition(eventCreate, string(gen.Status))

	s.Log.Infow("Generation created", "generation_id", gen.ID, "product_id", product.ID, "render_outcome", gen.RenderOutcome)
	return gen, nil
}

// Finalize replaces the generation file with one supplied by the user and
// marks it successful. The format is left as is.
func (s *GenerationService) Finalize(ctx context.Context, id, filename string, content []byte) (*models.Generation, error) {
	if filename == "" || len(content) == 0 {
		return nil, fmt.Errorf("%w: a non-empty file is required", ErrInvalidInput)
	}
	gen, err := s.GetGeneration(ctx, id)
	if err != nil {
		return nil, err
	}
	life := newLifecycle(gen, s.Metrics.IncTransition)
	if !life.can(eventFinalize) {
		return nil, fmt.Errorf("%w: cannot finalize a %s generation", ErrInvalidTransition, gen.Status)
	}

	product, err := s.Products.GetProduct(ctx, gen.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", gen.ProductID, err)
	}
	store, err := s.Stores.For(ctx, product.UserID)
	if err != nil {
		return nil, err
	}
	folderID, err := s.formulaFolder(ctx, store, product)
	if err != nil {
		return nil, err
	}
	fileID, err := store.Upload(ctx, storage.File{
		Name:     filename,
		MimeType: mimeTypeFor(filename),
		ParentID: folderID,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: final upload: %v", ErrRemoteUnavailable, err)
	}
	s.share(ctx, store, fileID)

	if err := life.fire(ctx, eventFinalize, filename); err != nil {
		return nil, err
	}
	completed := s.now()
	gen.DriveFileID = fileID
	gen.CompletedAt = &completed
	if err := s.Generations.UpdateGeneration(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to update generation: %w", err)
	}
	s.recordEvents(ctx, life.pending...)
	return gen, nil
}

// Validate converts the draft to PDF, splices in the annexes referenced by
// markers and stores the result. A successful generation is returned as is
// without touching the store.
func (s *GenerationService) Validate(ctx context.Context, id string) (*models.Generation, error) {
	gen, err := s.GetGeneration(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.Status == models.StatusSuccess {
		return gen, nil
	}
	life := newLifecycle(gen, s.Metrics.IncTransition)
	if !life.can(eventValidate) {
		return nil, fmt.Errorf("%w: cannot validate a %s generation", ErrInvalidTransition, gen.Status)
	}

	start := s.now()
	defer func() { s.Metrics.ObserveStageDuration(metrics.StageValidate, time.Since(start)) }()

	product, err := s.Products.GetProduct(ctx, gen.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", gen.ProductID, err)
	}
	store, err := s.Stores.For(ctx, product.UserID)
	if err != nil {
		return nil, err
	}

	base := baseName(product)
	converted := s.Converter.ConvertToPDF(ctx, store, Source{FileID: gen.DriveFileID, Name: base + ".docx"})
	if converted.Outcome == models.OutcomeFailed {
		state := string(gen.Status)
		s.recordEvents(ctx, newEvent(gen.ID, eventConvertFailed, state, state, fmt.Sprintf("conversion failed: %v", converted.Err)))
		return nil, fmt.Errorf("%w: pdf conversion: %v", ErrRemoteUnavailable, converted.Err)
	}

	candidates, err := s.annexCandidates(ctx, store, product.ID)
	if err != nil {
		return nil, err
	}
	merged := s.Merger.Merge(converted.Content, candidates)
	s.Metrics.IncStageOutcome(metrics.StageMerge, merged.Outcome)

	folderID, err := s.formulaFolder(ctx, store, product)
	if err != nil {
		return nil, err
	}
	fileID, err := store.Upload(ctx, storage.File{
		Name:     base + ".pdf",
		MimeType: storage.MimePDF,
		ParentID: folderID,
		Content:  merged.Content,
	})
	if err != nil {
		if failErr := s.fail(ctx, gen, "final PDF upload failed: "+err.Error()); failErr != nil {
			s.Log.Warnw("Failed to mark generation as failed", "generation_id", gen.ID, "error", failErr)
		}
		return nil, fmt.Errorf("%w: final upload: %v", ErrRemoteUnavailable, err)
	}
	s.share(ctx, store, fileID)

	detail := fmt.Sprintf("conversion=%s merge=%s", converted.Path, merged.Outcome)
	if err := life.fire(ctx, eventValidate, detail); err != nil {
		return nil, err
	}
	completed := s.now()
	gen.Format = models.FormatPDF
	gen.DriveFileID = fileID
	gen.MergeOutcome = merged.Outcome
	gen.CompletedAt = &completed
	if err := s.Generations.UpdateGeneration(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to update generation: %w", err)
	}
	s.recordEvents(ctx, life.pending...)

	s.promoteProduct(ctx, product)
	s.archive(ctx, gen, base+".pdf", merged.Content)

	s.Log.Infow("Generation validated", "generation_id", gen.ID, "conversion", converted.Path, "merge_outcome", merged.Outcome, "annexes", merged.Inserted)
	return gen, nil
}

// Fail marks a pending generation as failed.
func (s *GenerationService) Fail(ctx context.Context, id, message string) (*models.Generation, error) {
	gen, err := s.GetGeneration(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fail(ctx, gen, message); err != nil {
		return nil, err
	}
	return gen, nil
}

func (s *GenerationService) fail(ctx context.Context, gen *models.Generation, message string) error {
	life := newLifecycle(gen, s.Metrics.IncTransition)
	if err := life.fire(ctx, eventFail, message); err != nil {
		return err
	}
	completed := s.now()
	gen.ErrorMessage = &message
	gen.CompletedAt = &completed
	if err := s.Generations.UpdateGeneration(ctx, gen); err != nil {
		return fmt.Errorf("failed to update generation: %w", err)
	}
	s.recordEvents(ctx, life.pending...)
	return nil
}

// DeleteGeneration removes the stored file when possible, then the row.
func (s *GenerationService) DeleteGeneration(ctx context.Context, id string) error {
	gen, err := s.GetGeneration(ctx, id)
	if err != nil {
		return err
	}

	if gen.DriveFileID != "" {
		if err := s.deleteRemote(ctx, gen); err != nil {
			s.Log.Warnw("Failed to delete generation file", "generation_id", gen.ID, "file_id", gen.DriveFileID, "error", err)
		}
	}

	return s.Generations.DeleteGeneration(ctx, id)
}

func (s *GenerationService) deleteRemote(ctx context.Context, gen *models.Generation) error {
	product, err := s.Products.GetProduct(ctx, gen.ProductID)
	if err != nil {
		return err
	}
	store, err := s.Stores.For(ctx, product.UserID)
	if err != nil {
		return err
	}
	return store.Delete(ctx, gen.DriveFileID)
}

func (s *GenerationService) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	gen, err := s.Generations.GetGeneration(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("generation %s: %w", id, err)
	}
	return gen, nil
}

func (s *GenerationService) ListGenerations(ctx context.Context, productID string) ([]models.Generation, error) {
	return s.Generations.ListGenerations(ctx, productID)
}

func (s *GenerationService) ListEvents(ctx context.Context, id string) ([]models.GenerationEvent, error) {
	if _, err := s.GetGeneration(ctx, id); err != nil {
		return nil, err
	}
	return s.Events.ListEvents(ctx, id)
}

// formulaFolder ensures the product formula folder and remembers its id on
// the product.
func (s *GenerationService) formulaFolder(ctx context.Context, store storage.RemoteStore, product *models.Product) (string, error) {
	folderID, err := s.Folders.EnsureFolder(ctx, store, product.FolderPath())
	if err != nil {
		return "", err
	}
	if folderID != product.DriveFolderID {
		if err := s.Products.UpdateProductFolder(ctx, product.ID, folderID); err != nil {
			s.Log.Warnw("Failed to cache product folder", "product_id", product.ID, "error", err)
		} else {
			product.DriveFolderID = folderID
		}
	}
	return folderID, nil
}

func (s *GenerationService) annexCandidates(ctx context.Context, store storage.RemoteStore, productID string) ([]annex.Candidate, error) {
	attachments, err := s.Attachments.ListAttachmentsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	var candidates []annex.Candidate
	for i := range attachments {
		a := &attachments[i]
		if !strings.EqualFold(a.MimeType, models.MimePDF) {
			continue
		}
		content, err := store.Download(ctx, a.DriveFileID)
		if err != nil || len(content) == 0 {
			s.Log.Warnw("Skipping unreadable annex", "attachment_id", a.ID, "error", err)
			continue
		}
		candidates = append(candidates, annex.Candidate{Key: a.MatchKey(), MimeType: a.MimeType, Content: content})
	}
	return candidates, nil
}

func (s *GenerationService) promoteProduct(ctx context.Context, product *models.Product) {
	if product.Status == models.ProductValidated {
		return
	}
	if missing := product.MissingRequired(); len(missing) > 0 {
		s.Log.Infow("Product kept in draft", "product_id", product.ID, "missing", missing)
		return
	}
	if err := s.Products.UpdateProductStatus(ctx, product.ID, models.ProductValidated); err != nil {
		s.Log.Warnw("Failed to mark product as validated", "product_id", product.ID, "error", err)
		return
	}
	product.Status = models.ProductValidated
}

func (s *GenerationService) archive(ctx context.Context, gen *models.Generation, name string, content []byte) {
	result, err := s.Archive.Archive(ctx, storage.GenerationObjectName(gen.ID, name), content, storage.MimePDF)
	if err != nil {
		s.Log.Warnw("Failed to archive final PDF", "generation_id", gen.ID, "error", err)
		return
	}
	if result != nil {
		s.Log.Debugw("Final PDF archived", "generation_id", gen.ID, "object", result.ObjectName)
	}
}

func (s *GenerationService) share(ctx context.Context, store storage.RemoteStore, fileID string) {
	if err := store.GrantPublicRead(ctx, fileID); err != nil {
		s.Log.Warnw("Failed to share file", "file_id", fileID, "error", err)
	}
}

func (s *GenerationService) recordEvents(ctx context.Context, events ...models.GenerationEvent) {
	for i := range events {
		if err := s.Events.CreateEvent(ctx, &events[i]); err != nil {
			s.Log.Warnw("Failed to record generation event", "generation_id", events[i].GenerationID, "event", events[i].Event, "error", err)
		}
	}
}

func renderContext(product *models.Product, attachments []models.Attachment) processor.RenderContext {
	rc := processor.RenderContext{
		Product:     product.Fields(),
		Attachments: make([]processor.AttachmentRef, 0, len(attachments)),
		Annexes:     make(map[string]processor.AttachmentRef, len(attachments)),
	}
	for i := range attachments {
		ref := processor.NewAttachmentRef(&attachments[i])
		rc.Attachments = append(rc.Attachments, ref)
		rc.Annexes[attachments[i].MatchKey()] = ref
	}
	return rc
}

func baseName(product *models.Product) string {
	name := strings.TrimSpace(product.ProductName)
	if name == "" {
		return "document"
	}
	return name
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return storage.MimePDF
	case ".docx":
		return storage.MimeDOCX
	default:
		return "application/octet-stream"
	}
}
