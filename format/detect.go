// Package format identifies what a document actually contains.
//
// Detection is content-first: Classify inspects the decoded text and the raw
// bytes and consults the file extension only where content cannot decide.
// Detect and DetectFromMagic are the extension-only and magic-only building
// blocks used by the classification rules.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents the true content format of a document.
type Format int

const (
	// Unknown indicates empty or non-text binary content.
	Unknown Format = iota
	// MHTML indicates a MIME-encapsulated HTML document.
	MHTML
	// HTML indicates an HTML document.
	HTML
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// LegacyDoc indicates a Word 97-2003 binary (.doc) document.
	LegacyDoc
	// RTF indicates a Rich Text Format document.
	RTF
	// PlainText indicates text with no recognizable structure.
	PlainText
)

// String returns the tag name of the format.
func (f Format) String() string {
	switch f {
	case MHTML:
		return "mhtml"
	case HTML:
		return "html"
	case DOCX:
		return "docx"
	case LegacyDoc:
		return "legacy_doc"
	case RTF:
		return "rtf"
	case PlainText:
		return "plain_text"
	default:
		return "unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case MHTML:
		return ".mhtml"
	case HTML:
		return ".html"
	case DOCX:
		return ".docx"
	case LegacyDoc:
		return ".doc"
	case RTF:
		return ".rtf"
	case PlainText:
		return ".txt"
	default:
		return ""
	}
}

// Parse returns the format for a tag name produced by String.
func Parse(name string) Format {
	for f := MHTML; f <= PlainText; f++ {
		if f.String() == strings.ToLower(name) {
			return f
		}
	}
	return Unknown
}

// Detect determines the format suggested by a filename extension.
// It is advisory only: a .doc file may hold MHTML, and Classify overrides it.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mht", ".mhtml":
		return MHTML
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".docx":
		return DOCX
	case ".doc":
		return LegacyDoc
	case ".rtf":
		return RTF
	case ".txt", ".text", ".md", ".markdown":
		return PlainText
	default:
		return Unknown
	}
}

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// IsOLE reports whether data starts with the OLE2 compound file signature.
func IsOLE(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic)
}

// IsZIP reports whether data starts with a ZIP local file header.
func IsZIP(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// DetectFromMagic checks file magic bytes to determine format.
// ZIP archives are inspected to tell a Word document from other ZIP files.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	if IsOLE(data) {
		return LegacyDoc
	}

	if IsZIP(data) {
		f, err := detectZIPFormat(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return Unknown
		}
		return f
	}

	if detectHTMLMagic(data) {
		return HTML
	}

	return Unknown
}

// detectHTMLMagic checks if the data starts like an HTML document.
func detectHTMLMagic(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if len(data) == 0 {
		return false
	}

	upper := strings.ToUpper(string(data[:min(len(data), 512)]))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") {
		return true
	}
	if strings.HasPrefix(upper, "<HTML") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML
	if strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML") {
		return true
	}

	return false
}

// DetectFromReader inspects the content behind r to determine format.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if IsOLE(magic) {
		return LegacyDoc, nil
	}

	if IsZIP(magic) {
		return detectZIPFormat(r, size)
	}

	if detectHTMLMagic(magic) {
		return HTML, nil
	}

	return Unknown, nil
}

// detectZIPFormat inspects a ZIP archive for Word document parts.
// Other Office Open XML packages and plain archives report Unknown.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	hasContentTypes := false
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case strings.HasPrefix(f.Name, "xl/"), strings.HasPrefix(f.Name, "ppt/"):
			return Unknown, nil
		case f.Name == "[Content_Types].xml":
			hasContentTypes = true
		}
	}

	if hasContentTypes && contentTypesDeclareWord(zr) {
		return DOCX, nil
	}
	return Unknown, nil
}

// contentTypesDeclareWord reports whether [Content_Types].xml names the
// WordprocessingML main document part.
func contentTypesDeclareWord(zr *zip.Reader) bool {
	for _, f := range zr.File {
		if f.Name != "[Content_Types].xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false
		}
		data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
		rc.Close()
		if err != nil {
			return false
		}
		return bytes.Contains(data, []byte("wordprocessingml.document"))
	}
	return false
}
