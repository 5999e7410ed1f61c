// Package docx converts Word (Office Open XML) documents to HTML.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInvalidDocument is returned when the archive is not a Word document.
var ErrInvalidDocument = errors.New("docx: not a word document")

// Reader provides access to DOCX document content.
type Reader struct {
	files     map[string]*zip.File
	document  *documentXML
	styles    *stylesXML
	numbering *numberingXML
	rels      *relationshipsXML
	coreProps *corePropertiesXML
}

// Metadata is the document's core properties.
type Metadata struct {
	Title       string
	Author      string
	Subject     string
	Keywords    []string
	Description string
	Created     string
	Modified    string
}

// Open reads a DOCX file from disk.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return OpenBytes(data)
}

// OpenBytes parses a DOCX document held in memory.
func OpenBytes(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening ZIP archive: %v", ErrInvalidDocument, err)
	}

	r := &Reader{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	if err := r.parseDocument(); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	// Styles, numbering and core properties are optional; a document
	// without them still converts.
	r.styles = &stylesXML{}
	if r.parsePart("word/styles.xml", r.styles) != nil {
		r.styles = nil
	}
	r.numbering = &numberingXML{}
	if r.parsePart("word/numbering.xml", r.numbering) != nil {
		r.numbering = nil
	}
	r.coreProps = &corePropertiesXML{}
	if r.parsePart("docProps/core.xml", r.coreProps) != nil {
		r.coreProps = nil
	}

	return r, nil
}

// validate checks that required DOCX files exist.
func (r *Reader) validate() error {
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		if _, ok := r.files[name]; !ok {
			return fmt.Errorf("%w: missing required file %s", ErrInvalidDocument, name)
		}
	}
	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *Reader) parsePart(name string, v any) error {
	data, err := r.getFileContent(name)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

// parseRelationships parses the document relationships file.
func (r *Reader) parseRelationships() error {
	if _, ok := r.files["word/_rels/document.xml.rels"]; !ok {
		return nil
	}
	r.rels = &relationshipsXML{}
	return r.parsePart("word/_rels/document.xml.rels", r.rels)
}

// parseDocument parses the main document content.
func (r *Reader) parseDocument() error {
	r.document = &documentXML{}
	if err := r.parsePart("word/document.xml", r.document); err != nil {
		return fmt.Errorf("%w: unmarshaling document.xml: %v", ErrInvalidDocument, err)
	}
	return nil
}

// HTML renders the document body as an HTML document. The title element
// carries the core-properties title when there is one.
func (r *Reader) HTML() (string, error) {
	if r.document == nil {
		return "", fmt.Errorf("document not parsed")
	}
	w := newHTMLWriter(r)
	return w.document(r.Metadata().Title, r.document.Body.Blocks), nil
}

// Metadata returns document metadata.
func (r *Reader) Metadata() Metadata {
	meta := Metadata{}
	if r.coreProps == nil {
		return meta
	}
	meta.Title = strings.TrimSpace(r.coreProps.Title)
	meta.Author = strings.TrimSpace(r.coreProps.Creator)
	meta.Subject = strings.TrimSpace(r.coreProps.Subject)
	meta.Description = strings.TrimSpace(r.coreProps.Description)
	meta.Created = strings.TrimSpace(r.coreProps.Created)
	meta.Modified = strings.TrimSpace(r.coreProps.Modified)
	if r.coreProps.Keywords != "" {
		for _, kw := range strings.Split(r.coreProps.Keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				meta.Keywords = append(meta.Keywords, kw)
			}
		}
	}
	return meta
}

// ToHTML converts DOCX bytes to HTML in one step.
func ToHTML(data []byte) (string, Metadata, error) {
	r, err := OpenBytes(data)
	if err != nil {
		return "", Metadata{}, err
	}
	out, err := r.HTML()
	if err != nil {
		return "", Metadata{}, err
	}
	return out, r.Metadata(), nil
}
