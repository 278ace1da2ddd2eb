package processor

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
)

const (
	documentPart     = "word/document.xml"
	documentRelsPart = "word/_rels/document.xml.rels"
)

var errMissingDocument = errors.New("docx has no word/document.xml")

type packageEntry struct {
	header zip.FileHeader
	data   []byte
}

// Package is a docx held in memory. Entry order and compression methods
// survive a round trip so Word and LibreOffice accept the output.
type Package struct {
	entries []*packageEntry
	index   map[string]int
}

func OpenPackage(docx []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx file: %w", err)
	}

	pkg := &Package{index: make(map[string]int, len(reader.File))}
	for _, file := range reader.File {
		data, err := readEntry(file)
		if err != nil {
			return nil, fmt.Errorf("failed to extract file %s: %w", file.Name, err)
		}
		pkg.index[file.Name] = len(pkg.entries)
		pkg.entries = append(pkg.entries, &packageEntry{
			header: zip.FileHeader{Name: file.Name, Method: file.Method, Modified: file.Modified},
			data:   data,
		})
	}
	return pkg, nil
}

func readEntry(file *zip.File) ([]byte, error) {
	if file.FileInfo().IsDir() {
		return nil, nil
	}
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *Package) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

func (p *Package) Part(name string) ([]byte, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.entries[i].data, true
}

// SetPart replaces a part, appending it when absent.
func (p *Package) SetPart(name string, data []byte) {
	if i, ok := p.index[name]; ok {
		p.entries[i].data = data
		return
	}
	p.index[name] = len(p.entries)
	p.entries = append(p.entries, &packageEntry{
		header: zip.FileHeader{Name: name, Method: zip.Deflate},
		data:   data,
	})
}

// Match lists part names matching a path.Match pattern, sorted.
func (p *Package) Match(pattern string) []string {
	var names []string
	for _, e := range p.entries {
		if ok, _ := path.Match(pattern, e.header.Name); ok {
			names = append(names, e.header.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, e := range p.entries {
		header := e.header
		w, err := zipWriter.CreateHeader(&header)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to docx: %w", header.Name, err)
		}
		if len(e.data) == 0 {
			continue
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", header.Name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close docx: %w", err)
	}
	return buf.Bytes(), nil
}

// relsPartFor returns the relationship part of a part, e.g.
// word/header1.xml -> word/_rels/header1.xml.rels.
func relsPartFor(name string) string {
	dir, file := path.Split(name)
	return dir + "_rels/" + file + ".rels"
}
