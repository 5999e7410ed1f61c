package mhtml

import (
	"encoding/base64"
	"mime"
	"net/textproto"
	"regexp"
	"strings"
)

// Part is one leaf part of a multipart message. Body holds the bytes after
// the transfer encoding was removed; charset decoding happens later.
type Part struct {
	Header           textproto.MIMEHeader
	MediaType        string
	Params           map[string]string
	TransferEncoding string
	ContentID        string
	ContentLocation  string
	Body             []byte
}

// IsHTML reports whether the part declares an HTML media type.
func (p Part) IsHTML() bool {
	return strings.HasPrefix(p.MediaType, "text/html")
}

// IsImage reports whether the part declares an image media type.
func (p Part) IsImage() bool {
	return strings.HasPrefix(p.MediaType, "image/")
}

// Charset returns the declared charset parameter, if any.
func (p Part) Charset() string {
	return p.Params["charset"]
}

// rawPart is a part as it appears in the decoded message text.
type rawPart struct {
	header textproto.MIMEHeader
	body   string
}

var (
	headerLine     = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+.^_`|~-]+[ \\t]*:")
	boundaryParam  = regexp.MustCompile(`(?i)boundary\s*=\s*(?:"([^"\r\n]+)"|([^\s;"]+))`)
	charsetParam   = regexp.MustCompile(`(?i)charset\s*=\s*"?([A-Za-z0-9_.:\-]+)`)
	delimiterGuess = regexp.MustCompile(`^--([^\s]+?)(--)?[ \t]*$`)
)

// parseHeaderBlock reads MIME headers from the start of lines. The block ends
// at the first blank line, which is consumed, or at the first line that is
// neither a header nor a folded continuation, which is not.
func parseHeaderBlock(lines []string) (textproto.MIMEHeader, int) {
	hdr := make(textproto.MIMEHeader)
	var key string
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			return hdr, i + 1
		}
		if key != "" && (line[0] == ' ' || line[0] == '\t') {
			vals := hdr[key]
			vals[len(vals)-1] += " " + strings.TrimSpace(line)
			continue
		}
		if !headerLine.MatchString(line) {
			return hdr, i
		}
		name, value, _ := strings.Cut(line, ":")
		key = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(name))
		hdr.Add(key, strings.TrimSpace(value))
	}
	return hdr, len(lines)
}

// mediaType parses a Content-Type value. Malformed values still yield a
// lower-cased media type and whatever charset and boundary can be found.
func mediaType(value string) (string, map[string]string) {
	if value == "" {
		return "text/plain", map[string]string{}
	}
	mt, params, err := mime.ParseMediaType(value)
	if err == nil {
		return mt, params
	}

	head, _, _ := strings.Cut(value, ";")
	params = map[string]string{}
	if m := charsetParam.FindStringSubmatch(value); m != nil {
		params["charset"] = m[1]
	}
	if b := boundaryFrom(value); b != "" {
		params["boundary"] = b
	}
	return strings.ToLower(strings.TrimSpace(head)), params
}

func boundaryFrom(s string) string {
	m := boundaryParam.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// inferBoundary guesses the boundary from the first delimiter-looking line.
func inferBoundary(lines []string) string {
	for _, line := range lines {
		m := delimiterGuess.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m != nil && strings.Trim(m[1], "-") != "" {
			return m[1]
		}
	}
	return ""
}

// splitParts splits lines on the delimiter for boundary. Text before the
// first delimiter (the preamble) and after the closing delimiter is dropped.
// It reports no parts when no delimiter line is present.
func splitParts(lines []string, boundary string) []rawPart {
	delim := "--" + boundary
	closing := delim + "--"

	var parts []rawPart
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		chunk := lines[start:end]
		hdr, n := parseHeaderBlock(chunk)
		body := strings.Join(chunk[n:], "\n")
		body = strings.TrimSuffix(body, "\r")
		parts = append(parts, rawPart{header: hdr, body: body})
	}

	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		switch trimmed {
		case closing:
			flush(i)
			return parts
		case delim:
			flush(i)
			start = i + 1
		}
	}
	flush(len(lines))
	return parts
}

// decodeTransfer removes the content transfer encoding from body.
func decodeTransfer(encoding string, body []byte) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return DecodeQuotedPrintable(body)
	case "base64":
		compact := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\r', '\n':
				return -1
			}
			return r
		}, string(body))
		if out, err := base64.StdEncoding.DecodeString(compact); err == nil {
			return out
		}
		if out, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "=")); err == nil {
			return out
		}
		return body
	default:
		return body
	}
}
