package processor

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	docOpen  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>`
	docClose = `</w:body></w:document>`

	relsRoot = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`
	baseRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`
)

type part struct {
	name string
	body string
}

func buildDocx(t *testing.T, parts ...part) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// simpleDocx wraps body in a document part with a styles relationship.
func simpleDocx(t *testing.T, body string) []byte {
	t.Helper()
	return buildDocx(t,
		part{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		part{documentPart, docOpen + body + docClose},
		part{documentRelsPart, baseRels},
	)
}

func partOf(t *testing.T, docx []byte, name string) string {
	t.Helper()
	pkg, err := OpenPackage(docx)
	require.NoError(t, err)
	data, ok := pkg.Part(name)
	require.True(t, ok, "missing part %s", name)
	return string(data)
}

func para(runs ...string) string {
	out := "<w:p>"
	for _, r := range runs {
		out += `<w:r><w:t xml:space="preserve">` + r + `</w:t></w:r>`
	}
	return out + "</w:p>"
}
