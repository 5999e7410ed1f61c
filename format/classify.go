package format

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Input is what a classification rule sees: the decoded text, the raw bytes
// it came from and the advisory file extension (lower-cased, with the dot).
type Input struct {
	Text string
	Raw  []byte
	Ext  string
}

// Rule is one step of the classification policy. Match reports the format
// and true when the rule applies.
type Rule struct {
	Name  string
	Match func(in Input) (Format, bool)
}

// DefaultRules is the classification policy, evaluated in order.
var DefaultRules = []Rule{
	{Name: "mime-markers", Match: matchMIME},
	{Name: "binary-magic", Match: matchMagic},
	{Name: "rtf", Match: matchRTF},
	{Name: "html-tags", Match: matchHTML},
	{Name: "binary", Match: matchBinary},
}

// Classify decides the format of a document from its content. The
// extension is only a tiebreaker. Any text that no rule claims is
// PlainText; Unknown is reserved for empty or binary input.
func Classify(text string, raw []byte, ext string) Format {
	f, _ := ClassifyWithRules(DefaultRules, text, raw, ext)
	return f
}

// ClassifyWithRules applies rules in order and returns the first match
// together with the name of the rule that decided it. When no rule
// matches the result is PlainText, or Unknown for empty input.
func ClassifyWithRules(rules []Rule, text string, raw []byte, ext string) (Format, string) {
	if len(raw) == 0 && text == "" {
		return Unknown, "empty"
	}

	in := Input{Text: text, Raw: raw, Ext: normalizeExt(ext)}
	for _, r := range rules {
		if f, ok := r.Match(in); ok {
			return f, r.Name
		}
	}
	return PlainText, "default"
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// MIME signature markers. Confluence exports carry them under a .doc name.
var mimeMarkers = []string{
	"mime-version:",
	"content-type: multipart/related",
	`boundary="----=_part_`,
	"exported from confluence",
}

// HasMIMEMarkers reports whether text carries a MIME/MHTML signature.
func HasMIMEMarkers(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range mimeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// matchMIME runs before the magic checks, so MIME markers win even over
// an OLE or ZIP signature.
func matchMIME(in Input) (Format, bool) {
	if HasMIMEMarkers(in.Text) {
		return MHTML, true
	}
	return Unknown, false
}

func matchMagic(in Input) (Format, bool) {
	switch {
	case IsOLE(in.Raw):
		return LegacyDoc, true
	case IsZIP(in.Raw):
		if f := DetectFromMagic(in.Raw); f == DOCX {
			return DOCX, true
		}
	}
	return Unknown, false
}

func matchRTF(in Input) (Format, bool) {
	if strings.HasPrefix(strings.TrimLeft(in.Text, " \t\r\n"), `{\rtf`) {
		return RTF, true
	}
	if in.Ext == ".rtf" && !looksBinary(in) {
		return RTF, true
	}
	return Unknown, false
}

var htmlTags = []string{"<html", "<body", "<!doctype html"}

// HasHTMLTags reports whether text contains an HTML structural tag.
func HasHTMLTags(text string) bool {
	lower := strings.ToLower(text)
	for _, tag := range htmlTags {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

func matchHTML(in Input) (Format, bool) {
	if looksBinary(in) {
		return Unknown, false
	}
	if HasHTMLTags(in.Text) {
		return HTML, true
	}
	return Unknown, false
}

func matchBinary(in Input) (Format, bool) {
	if looksBinary(in) {
		return Unknown, true
	}
	return Unknown, false
}

// controlRatio is the share of control characters above which decoded
// text is treated as binary.
const controlRatio = 0.10

func looksBinary(in Input) bool {
	if IsOLE(in.Raw) || IsZIP(in.Raw) {
		return true
	}
	if bytes.IndexByte(in.Raw, 0) >= 0 {
		return true
	}

	sample := in.Text
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	var total, control int
	for len(sample) > 0 {
		r, size := utf8.DecodeRuneInString(sample)
		sample = sample[size:]
		total++
		switch {
		case r == '\n', r == '\r', r == '\t', r == '\f':
		case r < 0x20, r == 0x7F, r >= 0x80 && r < 0xA0:
			control++
		}
	}
	return total > 0 && float64(control)/float64(total) > controlRatio
}
