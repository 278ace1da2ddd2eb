package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const existingLink = `<w:hyperlink r:id="rId5"><w:r><w:t>old link</w:t></w:r></w:hyperlink>`

func linkedRels() string {
	return strings.Replace(baseRels, "</Relationships>",
		`<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://old.example" TargetMode="External"/></Relationships>`, 1)
}

func TestMakeClickableRewritesRun(t *testing.T) {
	docx := simpleDocx(t, para("Voir https://example.com/fiche ici", "sans lien"))

	out, err := MakeClickable(docx)
	require.NoError(t, err)

	body := partOf(t, out, documentPart)
	assert.Contains(t, body, `<w:hyperlink r:id="rId2" w:history="1">`)
	assert.Contains(t, body, `<w:rStyle w:val="Hyperlink"/>`)
	assert.Contains(t, body, ">Voir https://example.com/fiche ici</w:t></w:r></w:hyperlink>")
	assert.Contains(t, body, `<w:r><w:t xml:space="preserve">sans lien</w:t></w:r>`)

	rels := partOf(t, out, documentRelsPart)
	assert.Contains(t, rels, relsRoot)
	assert.Contains(t, rels, `Target="https://example.com/fiche"`)
}

func TestMakeClickableCreatesMissingRelsPart(t *testing.T) {
	docx := buildDocx(t, part{documentPart, docOpen + para("https://example.com") + docClose})

	out, err := MakeClickable(docx)
	require.NoError(t, err)

	rels := partOf(t, out, documentRelsPart)
	assert.True(t, strings.HasPrefix(rels, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+relsRoot), rels)
	assert.Contains(t, rels, `<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com" TargetMode="External"></Relationship>`)
}

func TestMakeClickableFirstURLPerRun(t *testing.T) {
	docx := simpleDocx(t, para("ftp://a.example/x et https://b.example"))

	out, err := MakeClickable(docx)
	require.NoError(t, err)

	rels := partOf(t, out, documentRelsPart)
	assert.Contains(t, rels, `Target="ftp://a.example/x"`)
	assert.NotContains(t, rels, "b.example")
	assert.Equal(t, 1, strings.Count(partOf(t, out, documentPart), "<w:hyperlink"))
}

func TestMakeClickableSkipsExistingHyperlinks(t *testing.T) {
	body := `<w:p><w:hyperlink r:id="rId5"><w:r><w:t>https://old.example</w:t></w:r></w:hyperlink></w:p>`
	docx := buildDocx(t,
		part{documentPart, docOpen + body + docClose},
		part{documentRelsPart, linkedRels()},
	)

	out, err := MakeClickable(docx)
	require.NoError(t, err)
	assert.Equal(t, docx, out)
}

func TestMakeClickableIdempotent(t *testing.T) {
	once, err := MakeClickable(simpleDocx(t, para("https://example.com")))
	require.NoError(t, err)
	twice, err := MakeClickable(once)
	require.NoError(t, err)

	assert.Equal(t, partOf(t, once, documentPart), partOf(t, twice, documentPart))
	assert.Equal(t, 1, strings.Count(partOf(t, twice, documentRelsPart), "/hyperlink"))
}

func TestMakeClickableEscapesText(t *testing.T) {
	out, err := MakeClickable(simpleDocx(t, para("R&amp;D: https://example.com/?a=1&amp;b=2")))
	require.NoError(t, err)

	assert.Contains(t, partOf(t, out, documentPart), ">R&amp;D: https://example.com/?a=1&amp;b=2</w:t>")
	assert.Contains(t, partOf(t, out, documentRelsPart), `Target="https://example.com/?a=1&amp;b=2"`)
}

func TestStripHyperlinks(t *testing.T) {
	body := `<w:p><w:r><w:t>avant </w:t></w:r>` + existingLink + `<w:r><w:t> après</w:t></w:r></w:p>`
	docx := buildDocx(t,
		part{documentPart, docOpen + body + docClose},
		part{documentRelsPart, linkedRels()},
	)

	out, err := StripHyperlinks(docx)
	require.NoError(t, err)

	doc := partOf(t, out, documentPart)
	assert.NotContains(t, doc, "w:hyperlink")
	assert.NotContains(t, doc, "old link")
	assert.Contains(t, doc, "<w:t>avant </w:t>")
	assert.Contains(t, doc, "<w:t> après</w:t>")

	rels := partOf(t, out, documentRelsPart)
	assert.Contains(t, rels, relsRoot)
	assert.NotContains(t, rels, "/hyperlink")
	assert.Contains(t, rels, `Id="rId1"`)
}

func TestStripThenMakeClickableRoundTrip(t *testing.T) {
	body := para("Site https://example.com/doc") +
		`<w:p>` + existingLink + `</w:p>`
	docx := buildDocx(t,
		part{documentPart, docOpen + body + docClose},
		part{documentRelsPart, linkedRels()},
	)

	stripped, err := StripHyperlinks(docx)
	require.NoError(t, err)
	doc := partOf(t, stripped, documentPart)
	assert.NotContains(t, doc, "w:hyperlink")
	assert.Contains(t, doc, "Site https://example.com/doc")

	relinked, err := MakeClickable(stripped)
	require.NoError(t, err)
	doc = partOf(t, relinked, documentPart)
	assert.Equal(t, 1, strings.Count(doc, "<w:hyperlink"))
	assert.Contains(t, doc, ">Site https://example.com/doc</w:t></w:r></w:hyperlink>")
	assert.NotContains(t, doc, "old link")
}

func TestLinkRewriterRejectsMalformed(t *testing.T) {
	_, err := MakeClickable([]byte("nope"))
	assert.Error(t, err)
	_, err = StripHyperlinks([]byte("nope"))
	assert.Error(t, err)

	noDoc := buildDocx(t, part{"word/styles.xml", "<w:styles/>"})
	_, err = MakeClickable(noDoc)
	assert.ErrorIs(t, err, errMissingDocument)
}
