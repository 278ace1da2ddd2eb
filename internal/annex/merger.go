package annex

import (
	"fmt"
	"strings"
	"unicode"

	"DIP-EASY/internal/models"

	"go.uber.org/zap"
)

// Candidate is an attachment that may be spliced into the final PDF.
type Candidate struct {
	Key      string // alias, or file name when the alias is empty
	MimeType string
	Content  []byte
}

type MergeResult struct {
	Content  []byte
	Outcome  models.Outcome
	Inserted int // annex insertions, one per (page, annex) match
	Err      error
}

type Merger struct {
	engine Engine
	log    *zap.SugaredLogger
}

func NewMerger(engine Engine, log *zap.SugaredLogger) *Merger {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Merger{engine: engine, log: log}
}

// Merge walks the main document page by page. After each page it appends
// every PDF annex whose marker appears in that page's text, in candidate
// order. An annex referenced from several pages is inserted after each of
// them. Failures return the main document untouched with OutcomeFailed;
// a document without any matching marker comes back with OutcomeSkipped.
func (m *Merger) Merge(main []byte, candidates []Candidate) MergeResult {
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.EqualFold(c.MimeType, models.MimePDF) && c.Key != "" {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return MergeResult{Content: main, Outcome: models.OutcomeSkipped}
	}

	texts, err := m.engine.PageTexts(main)
	if err != nil {
		return m.failed(main, err)
	}

	matches := make([][]int, len(texts))
	total := 0
	for i, text := range texts {
		joined := stripLineBreaks(text)
		for j, c := range eligible {
			if containsMarker(text, joined, c.Key) {
				matches[i] = append(matches[i], j)
				total++
			}
		}
	}
	if total == 0 {
		return MergeResult{Content: main, Outcome: models.OutcomeSkipped}
	}

	mainPages, err := m.engine.SplitPages(main)
	if err != nil {
		return m.failed(main, err)
	}
	if len(mainPages) != len(texts) {
		return m.failed(main, fmt.Errorf("page count mismatch: %d pages, %d texts", len(mainPages), len(texts)))
	}

	// Annexes are split on first use and reused for every later marker.
	pagesOf := make(map[int][][]byte, len(eligible))
	out := make([][]byte, 0, len(mainPages))
	for i, page := range mainPages {
		out = append(out, page)
		for _, j := range matches[i] {
			pages, ok := pagesOf[j]
			if !ok {
				if pages, err = m.engine.SplitPages(eligible[j].Content); err != nil {
					return m.failed(main, fmt.Errorf("annex %q: %w", eligible[j].Key, err))
				}
				pagesOf[j] = pages
			}
			out = append(out, pages...)
		}
	}

	merged, err := m.engine.Concat(out)
	if err != nil {
		return m.failed(main, err)
	}
	m.log.Infow("Annexes merged", "insertions", total, "pages", len(out))
	return MergeResult{Content: merged, Outcome: models.OutcomeOK, Inserted: total}
}

func (m *Merger) failed(main []byte, err error) MergeResult {
	m.log.Warnw("Annex merge failed, keeping the unmerged PDF", "error", err)
	return MergeResult{Content: main, Outcome: models.OutcomeFailed, Err: err}
}

// containsMarker matches the marker exactly. Text extraction may break lines
// inside a marker, so keys without whitespace are also looked up in the page
// text with its line breaks removed. Spaces are never dropped: "Test SPF.pdf"
// and "TestSPF.pdf" are different aliases.
func containsMarker(text, joined, key string) bool {
	marker := models.AnnexMarker(key)
	if strings.Contains(text, marker) {
		return true
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return false
	}
	return strings.Contains(joined, marker)
}

func stripLineBreaks(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
}
