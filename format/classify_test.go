package format

import (
	"testing"
)

const confluenceExport = "Date: Mon, 1 Jan 2024 10:00:00 +0000 (UTC)\r\n" +
	"Message-ID: <1@localhost>\r\n" +
	"Subject: Exported From Confluence\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/related; boundary=\"----=_Part_0_1.2\"\r\n\r\n" +
	"------=_Part_0_1.2\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n<html></html>\r\n"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		raw  []byte
		ext  string
		want Format
	}{
		{"confluence export as doc", confluenceExport, nil, ".doc", MHTML},
		{"mime version only", "MIME-Version: 1.0\r\n\r\nhello", nil, ".txt", MHTML},
		{"multipart related header", "content-type: Multipart/Related; type=text/html", nil, "", MHTML},
		{"part boundary token", `x boundary="----=_Part_12_34" y`, nil, ".html", MHTML},
		{"ole magic", "", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0}, ".doc", LegacyDoc},
		{"mime markers over ole magic", "\xd0\xcf\x11\xe0MIME-Version: 1.0\r\nContent-Type: multipart/related",
			append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, "MIME-Version: 1.0\r\nContent-Type: multipart/related"...), ".doc", MHTML},
		{"mime markers over zip magic", "PK\x03\x04MIME-Version: 1.0", []byte("PK\x03\x04MIME-Version: 1.0"), ".docx", MHTML},
		{"rtf header", `{\rtf1\ansi hello}`, nil, ".txt", RTF},
		{"rtf extension", "not really rtf", nil, ".RTF", RTF},
		{"html doctype", "<!DOCTYPE html><p>x</p>", nil, ".txt", HTML},
		{"html body tag", "<BODY>text</BODY>", nil, "", HTML},
		{"plain text", "Just some notes.\nSecond line.", nil, ".txt", PlainText},
		{"plain text under doc extension", "Just some notes.", nil, ".doc", PlainText},
		{"markdown", "# Title\n\nBody", nil, ".md", PlainText},
		{"empty", "", []byte{}, ".txt", Unknown},
		{"nul bytes", "a\x00b", []byte("a\x00b"), ".txt", Unknown},
		{"control characters", "\x01\x02\x03\x04\x05\x06abc", []byte("\x01\x02\x03\x04\x05\x06abc"), "", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.raw
			if raw == nil {
				raw = []byte(tt.text)
			}
			if got := Classify(tt.text, raw, tt.ext); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_ExtensionIndependence(t *testing.T) {
	texts := []string{
		confluenceExport,
		"MIME-Version: 1.0\r\nContent-Type: multipart/related; boundary=\"X\"\r\n--X\r\n",
		"<html><body>Exported From Confluence</body></html>",
	}
	for _, text := range texts {
		for _, ext := range []string{".doc", ".html", "", ".txt", "rtf"} {
			if got := Classify(text, []byte(text), ext); got != MHTML {
				t.Errorf("Classify(%.30q, ext=%q) = %v, want mhtml", text, ext, got)
			}
		}
	}
}

func TestClassify_DOCXArchive(t *testing.T) {
	data := buildZip(t, "[Content_Types].xml", "word/document.xml")
	if got := Classify(string(data), data, ".doc"); got != DOCX {
		t.Errorf("Classify() = %v, want docx", got)
	}

	other := buildZip(t, "data.csv")
	if got := Classify(string(other), other, ".zip"); got != Unknown {
		t.Errorf("Classify(plain zip) = %v, want unknown", got)
	}
}

func TestClassifyWithRules(t *testing.T) {
	rules := []Rule{
		{Name: "always-rtf", Match: func(Input) (Format, bool) { return RTF, true }},
	}
	got, rule := ClassifyWithRules(rules, "<html>", []byte("<html>"), ".html")
	if got != RTF || rule != "always-rtf" {
		t.Errorf("ClassifyWithRules() = (%v, %q), want (rtf, always-rtf)", got, rule)
	}

	got, rule = ClassifyWithRules(nil, "anything", []byte("anything"), "")
	if got != PlainText || rule != "default" {
		t.Errorf("ClassifyWithRules(nil) = (%v, %q), want (plain_text, default)", got, rule)
	}

	got, _ = ClassifyWithRules(DefaultRules, "", nil, ".doc")
	if got != Unknown {
		t.Errorf("ClassifyWithRules(empty) = %v, want unknown", got)
	}
}
