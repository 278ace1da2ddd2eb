package processor

import (
	"bytes"
	"fmt"
	"html"
	"text/template"

	"DIP-EASY/internal/models"
)

// AttachmentRef is the template view of an attachment.
type AttachmentRef struct {
	ID       string
	FieldKey string
	Alias    string
	FileName string
	MimeType string
	URL      string
}

func NewAttachmentRef(a *models.Attachment) AttachmentRef {
	return AttachmentRef{
		ID:       a.ID,
		FieldKey: a.FieldKey,
		Alias:    a.Alias,
		FileName: a.FileName,
		MimeType: a.MimeType,
		URL:      a.URL,
	}
}

func (a AttachmentRef) escaped() AttachmentRef {
	return AttachmentRef{
		ID:       escapeXML(a.ID),
		FieldKey: escapeXML(a.FieldKey),
		Alias:    escapeXML(a.Alias),
		FileName: escapeXML(a.FileName),
		MimeType: escapeXML(a.MimeType),
		URL:      escapeXML(a.URL),
	}
}

// RenderContext is the data a template is rendered against. Product keys are
// reachable both at top level ({{.nom_commercial}}) and under product
// ({{.product.nom_commercial}}).
type RenderContext struct {
	Product     map[string]any
	Attachments []AttachmentRef
	Annexes     map[string]AttachmentRef
}

func (rc RenderContext) data() map[string]any {
	product := make(map[string]any, len(rc.Product))
	for k, v := range rc.Product {
		product[k] = escapeValue(v)
	}
	attachments := make([]AttachmentRef, 0, len(rc.Attachments))
	for _, a := range rc.Attachments {
		attachments = append(attachments, a.escaped())
	}
	annexes := make(map[string]AttachmentRef, len(rc.Annexes))
	for k, a := range rc.Annexes {
		annexes[k] = a.escaped()
	}

	data := make(map[string]any, len(product)+3)
	for k, v := range product {
		data[k] = v
	}
	data["product"] = product
	data["attachments"] = attachments
	data["annexes"] = annexes
	return data
}

func escapeValue(v any) any {
	switch s := v.(type) {
	case string:
		return escapeXML(s)
	case *string:
		if s == nil {
			return ""
		}
		return escapeXML(*s)
	case fmt.Stringer:
		return escapeXML(s.String())
	default:
		return v
	}
}

type RenderResult struct {
	Content []byte
	Outcome models.Outcome
	Err     error
}

func (r RenderResult) Degraded() bool {
	return r.Outcome != models.OutcomeOK
}

// Render executes the template actions of the document body, headers and
// footers. It never fails: on any error the original bytes come back with
// OutcomeDegraded and the cause in Err.
func Render(docx []byte, rc RenderContext) (result RenderResult) {
	defer func() {
		if p := recover(); p != nil {
			result = degraded(docx, fmt.Errorf("render panic: %v", p))
		}
	}()

	pkg, err := OpenPackage(docx)
	if err != nil {
		return degraded(docx, err)
	}
	if !pkg.Has(documentPart) {
		return degraded(docx, errMissingDocument)
	}

	data := rc.data()
	parts := append([]string{documentPart}, pkg.Match("word/header*.xml")...)
	parts = append(parts, pkg.Match("word/footer*.xml")...)
	for _, name := range parts {
		if err := renderPart(pkg, name, data); err != nil {
			return degraded(docx, err)
		}
	}

	out, err := pkg.Bytes()
	if err != nil {
		return degraded(docx, err)
	}
	return RenderResult{Content: out, Outcome: models.OutcomeOK}
}

func degraded(original []byte, err error) RenderResult {
	return RenderResult{Content: original, Outcome: models.OutcomeDegraded, Err: err}
}

func renderPart(pkg *Package, name string, data map[string]any) error {
	src, _ := pkg.Part(name)
	relsName := relsPartFor(name)

	var rels *relationships
	funcs := template.FuncMap{
		// hyperlink closes the current run, inserts a native hyperlink and
		// reopens a plain run for the text that follows.
		"hyperlink": func(target string, text ...string) (string, error) {
			if rels == nil {
				var err error
				if rels, err = loadRelationships(pkg, relsName); err != nil {
					return "", err
				}
			}
			target = html.UnescapeString(target)
			display := target
			if len(text) > 0 && text[0] != "" {
				display = html.UnescapeString(text[0])
			}
			return `</w:t></w:r>` + hyperlinkXML(rels.addHyperlink(target), display) + `<w:r><w:t xml:space="preserve">`, nil
		},
		"annex": func(key string) string {
			return escapeXML(models.AnnexMarker(html.UnescapeString(key)))
		},
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(healActions(string(src)))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	pkg.SetPart(name, bytes.ReplaceAll(buf.Bytes(), []byte("<no value>"), nil))

	if rels != nil {
		relsData, err := rels.marshal()
		if err != nil {
			return err
		}
		pkg.SetPart(relsName, relsData)
	}
	return nil
}
