package annex

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Engine is the page-level PDF toolkit the merger runs on.
type Engine interface {
	// PageTexts returns the extracted text of every page, in order.
	PageTexts(doc []byte) ([]string, error)
	// SplitPages returns every page as a standalone single-page document.
	SplitPages(doc []byte) ([][]byte, error)
	// Concat joins single-page documents into one.
	Concat(pages [][]byte) ([]byte, error)
}

// PDFEngine splits and joins pages with pdfcpu and reads page text with
// ledongthuc/pdf.
type PDFEngine struct {
	conf *model.Configuration
}

func NewPDFEngine() *PDFEngine {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFEngine{conf: conf}
}

func (e *PDFEngine) PageTexts(doc []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}

	texts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text of page %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (e *PDFEngine) SplitPages(doc []byte) ([][]byte, error) {
	count, err := api.PageCount(bytes.NewReader(doc), e.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %w", err)
	}

	pages := make([][]byte, 0, count)
	for i := 1; i <= count; i++ {
		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(doc), &buf, []string{strconv.Itoa(i)}, e.conf); err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}

func (e *PDFEngine) Concat(pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to concatenate")
	}
	readers := make([]io.ReadSeeker, 0, len(pages))
	for _, p := range pages {
		readers = append(readers, bytes.NewReader(p))
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, e.conf); err != nil {
		return nil, fmt.Errorf("failed to merge PDF pages: %w", err)
	}
	return buf.Bytes(), nil
}
