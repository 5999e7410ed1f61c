//go:build !ocr

package doctomd

import "testing"

func TestConvert_OCRNotCompiledIn(t *testing.T) {
	res := convert(t, FromBytes("chart.doc", []byte(mhtmlWithImage)).OCRImages("eng+deu"))

	var n int
	for _, w := range res.Warnings {
		if w.Code == WarnOCRUnavailable {
			n++
		}
	}
	if n != 1 {
		t.Errorf("Warnings = %v, want one %s warning", res.Warnings, WarnOCRUnavailable)
	}
	if res.Markdown != "Chart:" {
		t.Errorf("Markdown = %q, want %q", res.Markdown, "Chart:")
	}
}
