package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DIP-EASY/internal/metrics"
	"DIP-EASY/internal/models"
	"DIP-EASY/internal/processor"
	"DIP-EASY/internal/storage"

	"go.uber.org/zap"
)

// LocalConverter turns a .docx into a PDF without the remote store.
type LocalConverter interface {
	ConvertDocxToPDF(ctx context.Context, docx []byte, filename string) ([]byte, error)
}

type ConversionPath string

const (
	PathExport     ConversionPath = "export"
	PathCopyExport ConversionPath = "copy_export"
	PathLocal      ConversionPath = "local"
	PathNone       ConversionPath = "none"
)

// Source identifies the document to convert. Content is optional when
// FileID is set and the store is reachable.
type Source struct {
	FileID  string
	Name    string
	Content []byte
}

type ConversionResult struct {
	Content []byte
	Path    ConversionPath
	Outcome models.Outcome
	Err     error
}

type Converter struct {
	local   LocalConverter
	metrics metrics.Recorder
	log     *zap.SugaredLogger
}

func NewConverter(local LocalConverter, recorder metrics.Recorder, log *zap.SugaredLogger) *Converter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Converter{local: local, metrics: recorder, log: log}
}

var errEmptyExport = errors.New("export returned no content")

// ConvertToPDF tries a direct export, then an export of a temporary Google
// Docs copy, then a local conversion of the hyperlink-free document. When
// all of them fail the source bytes come back with OutcomeFailed.
func (c *Converter) ConvertToPDF(ctx context.Context, store storage.RemoteStore, src Source) ConversionResult {
	start := time.Now()
	defer func() { c.metrics.ObserveStageDuration(metrics.StageConvert, time.Since(start)) }()

	var errs []error
	if store != nil && src.FileID != "" {
		pdf, err := store.ExportPDF(ctx, src.FileID)
		if err == nil && len(pdf) > 0 {
			return c.done(pdf, PathExport)
		}
		errs = append(errs, fmt.Errorf("export: %w", orEmpty(err)))

		pdf, err = c.copyExport(ctx, store, src)
		if err == nil {
			return c.done(pdf, PathCopyExport)
		}
		errs = append(errs, fmt.Errorf("copy export: %w", err))
	}

	content := src.Content
	if len(content) == 0 && store != nil && src.FileID != "" {
		downloaded, err := store.Download(ctx, src.FileID)
		if err != nil {
			errs = append(errs, fmt.Errorf("download: %w", err))
		}
		content = downloaded
	}

	if len(content) > 0 && c.local != nil {
		pdf, err := c.convertLocally(ctx, content, src.Name)
		if err == nil {
			return c.done(pdf, PathLocal)
		}
		errs = append(errs, fmt.Errorf("local: %w", err))
	}

	err := errors.Join(errs...)
	if err == nil {
		err = errors.New("no conversion path available")
	}
	c.log.Warnw("PDF conversion failed, returning source document", "file_id", src.FileID, "error", err)
	c.metrics.IncStageOutcome(metrics.StageConvert, models.OutcomeFailed)
	return ConversionResult{Content: content, Path: PathNone, Outcome: models.OutcomeFailed, Err: err}
}

func (c *Converter) copyExport(ctx context.Context, store storage.RemoteStore, src Source) ([]byte, error) {
	copyID, err := store.Copy(ctx, src.FileID, src.Name+" (conversion)", storage.MimeGoogleDoc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Delete(ctx, copyID); err != nil {
			c.log.Warnw("Failed to delete conversion copy", "file_id", copyID, "error", err)
		}
	}()

	pdf, err := store.ExportPDF(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, errEmptyExport
	}
	return pdf, nil
}

func (c *Converter) convertLocally(ctx context.Context, docx []byte, name string) ([]byte, error) {
	stripped, err := processor.StripHyperlinks(docx)
	if err != nil {
		c.log.Warnw("Failed to strip hyperlinks, converting as is", "error", err)
		stripped = docx
	}
	if name == "" {
		name = "document.docx"
	}
	pdf, err := c.local.ConvertDocxToPDF(ctx, stripped, name)
	if err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, errEmptyExport
	}
	return pdf, nil
}

func (c *Converter) done(pdf []byte, path ConversionPath) ConversionResult {
	c.log.Debugw("PDF conversion succeeded", "path", path, "size", len(pdf))
	c.metrics.IncStageOutcome(metrics.StageConvert, models.OutcomeOK)
	return ConversionResult{Content: pdf, Path: path, Outcome: models.OutcomeOK}
}

func orEmpty(err error) error {
	if err == nil {
		return errEmptyExport
	}
	return err
}
