package processor

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

const hyperlinkRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

type relationships struct {
	XMLName xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Items   []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// loadRelationships parses a rels part, or starts an empty one when the
// part does not exist.
func loadRelationships(pkg *Package, name string) (*relationships, error) {
	data, ok := pkg.Part(name)
	if !ok {
		return &relationships{}, nil
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &rels, nil
}

func (r *relationships) nextID() string {
	highest := 0
	for _, rel := range r.Items {
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n > highest {
			highest = n
		}
	}
	return "rId" + strconv.Itoa(highest+1)
}

func (r *relationships) addHyperlink(target string) string {
	id := r.nextID()
	r.Items = append(r.Items, relationship{
		ID:         id,
		Type:       hyperlinkRelType,
		Target:     target,
		TargetMode: "External",
	})
	return id
}

func (r *relationships) removeHyperlinks() int {
	kept := r.Items[:0]
	removed := 0
	for _, rel := range r.Items {
		if strings.HasSuffix(rel.Type, "/hyperlink") {
			removed++
			continue
		}
		kept = append(kept, rel)
	}
	r.Items = kept
	return removed
}

func (r *relationships) marshal() ([]byte, error) {
	out, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relationships: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
