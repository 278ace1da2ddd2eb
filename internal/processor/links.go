package processor

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)[a-z][a-z0-9+.\-]*://\S+`)

// MakeClickable turns every run of the document body whose text contains a
// URL into a native hyperlink. The first URL of the run becomes the target
// and the run's full text stays visible. Runs already inside a hyperlink are
// left alone, so the pass is idempotent.
func MakeClickable(docx []byte) ([]byte, error) {
	pkg, err := OpenPackage(docx)
	if err != nil {
		return nil, err
	}
	doc, ok := pkg.Part(documentPart)
	if !ok {
		return nil, errMissingDocument
	}
	rels, err := loadRelationships(pkg, documentRelsPart)
	if err != nil {
		return nil, err
	}

	body, changed := linkRuns(string(doc), rels)
	if !changed {
		return docx, nil
	}

	relsData, err := rels.marshal()
	if err != nil {
		return nil, err
	}
	pkg.SetPart(documentPart, []byte(body))
	pkg.SetPart(documentRelsPart, relsData)
	return pkg.Bytes()
}

func linkRuns(doc string, rels *relationships) (string, bool) {
	var out strings.Builder
	last, pos, inLink := 0, 0, 0
	changed := false

	for {
		t, ok := nextTag(doc, pos)
		if !ok {
			break
		}
		pos = t.end

		switch {
		case t.name == "w:hyperlink" && !t.selfClosing:
			if t.closing {
				if inLink > 0 {
					inLink--
				}
			} else {
				inLink++
			}
		case t.name == "w:r" && !t.closing && !t.selfClosing && inLink == 0:
			end, nested, found := elementEnd(doc, t)
			if !found || nested {
				continue
			}
			text := runText(doc[t.start:end])
			target := urlPattern.FindString(text)
			if target == "" {
				pos = end
				continue
			}

			out.WriteString(doc[last:t.start])
			out.WriteString(hyperlinkXML(rels.addHyperlink(target), text))
			last, pos = end, end
			changed = true
		}
	}

	if !changed {
		return doc, false
	}
	out.WriteString(doc[last:])
	return out.String(), true
}

func hyperlinkXML(relID, text string) string {
	return `<w:hyperlink r:id="` + relID + `" w:history="1"><w:r><w:rPr><w:rStyle w:val="Hyperlink"/></w:rPr>` +
		`<w:t xml:space="preserve">` + escapeXML(text) + `</w:t></w:r></w:hyperlink>`
}

// StripHyperlinks deletes every hyperlink element of the document body,
// including the text it carries, and every hyperlink relationship.
func StripHyperlinks(docx []byte) ([]byte, error) {
	pkg, err := OpenPackage(docx)
	if err != nil {
		return nil, err
	}
	doc, ok := pkg.Part(documentPart)
	if !ok {
		return nil, errMissingDocument
	}

	body := removeElements(string(doc), "w:hyperlink")
	pkg.SetPart(documentPart, []byte(body))

	if pkg.Has(documentRelsPart) {
		rels, err := loadRelationships(pkg, documentRelsPart)
		if err != nil {
			return nil, err
		}
		if rels.removeHyperlinks() > 0 {
			relsData, err := rels.marshal()
			if err != nil {
				return nil, err
			}
			pkg.SetPart(documentRelsPart, relsData)
		}
	}
	return pkg.Bytes()
}

func removeElements(doc, name string) string {
	var out strings.Builder
	last, pos := 0, 0
	for {
		t, ok := nextTag(doc, pos)
		if !ok {
			break
		}
		pos = t.end
		if t.name != name || t.closing {
			continue
		}
		end, _, found := elementEnd(doc, t)
		if !found {
			break
		}
		out.WriteString(doc[last:t.start])
		last, pos = end, end
	}
	out.WriteString(doc[last:])
	return out.String()
}
