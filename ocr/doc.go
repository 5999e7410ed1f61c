// Package ocr recovers text from images embedded in exported documents,
// such as screenshots and diagrams in a wiki page export.
//
// Recognition wraps the Tesseract engine via gosseract and is compiled in
// only with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Tesseract must be installed (brew install tesseract, or apt-get install
// tesseract-ocr). Without the tag, New returns ErrOCRNotEnabled. Image
// preparation works in both builds.
package ocr

import (
	"errors"
	"strings"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// ErrOCRNotEnabled is returned by New when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Languages splits a Tesseract language spec such as "eng+deu". An empty
// spec yields DefaultLanguage.
func Languages(spec string) []string {
	var langs []string
	for _, l := range strings.Split(spec, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		return []string{DefaultLanguage}
	}
	return langs
}
