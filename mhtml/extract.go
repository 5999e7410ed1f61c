// Package mhtml recovers the HTML body of MIME-encapsulated HTML documents,
// such as the ".doc" pages Confluence exports.
//
// Well-formed messages are parsed with enmime. Extraction is still tolerant
// of the framing errors real exports contain: delimiter lines are split by
// hand when the parser rejects the message. When no multipart structure can
// be found the whole message is treated as one quoted-printable part, and the
// Result is marked Degraded.
package mhtml

import (
	"bytes"
	"errors"
	"fmt"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/trezero/docTomd/format"
	"github.com/trezero/docTomd/textenc"
)

// ErrMalformedStructure reports that the multipart framing or the primary
// part could not be located and extraction fell back to degraded mode.
var ErrMalformedStructure = errors.New("mhtml: malformed MIME structure")

// Result is the outcome of an extraction.
type Result struct {
	// HTML is the primary part's body as valid UTF-8 with boilerplate removed.
	HTML string
	// Encoding is the character encoding that decoded the primary part.
	Encoding string
	// Header holds the top-level message headers.
	Header textproto.MIMEHeader
	// Parts lists every leaf part in depth-first order.
	Parts []Part
	// Primary indexes the selected part in Parts, or -1 in degraded mode.
	Primary int
	// Degraded is set when extraction had to guess the structure.
	Degraded bool
	// Warning describes the degradation; it wraps ErrMalformedStructure.
	Warning error
}

// Resource returns the part a reference such as "cid:image1" or a
// Content-Location URL points at.
func (r Result) Resource(ref string) (Part, bool) {
	if id, ok := strings.CutPrefix(ref, "cid:"); ok {
		for _, p := range r.Parts {
			if p.ContentID == id {
				return p, true
			}
		}
		return Part{}, false
	}
	for _, p := range r.Parts {
		if p.ContentLocation != "" && p.ContentLocation == ref {
			return p, true
		}
	}
	return Part{}, false
}

// Extractor pulls the primary HTML part out of an MHTML message.
// The zero value is not usable; create one with New.
type Extractor struct {
	resolver        *textenc.Resolver
	keepBoilerplate bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithResolver sets the encoding chain used to decode part bodies.
func WithResolver(r *textenc.Resolver) Option {
	return func(e *Extractor) {
		if r != nil {
			e.resolver = r
		}
	}
}

// KeepBoilerplate disables removal of style blocks and export banners.
func KeepBoilerplate() Option {
	return func(e *Extractor) {
		e.keepBoilerplate = true
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{resolver: textenc.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract recovers the HTML body from doc, the decoded message text.
func Extract(doc textenc.Decoded) Result {
	return New().Extract(doc)
}

// Extract recovers the HTML body from doc, the decoded message text.
// It never fails; structural problems are reported through Result.Degraded
// and Result.Warning.
func (e *Extractor) Extract(doc textenc.Decoded) Result {
	lines := strings.Split(doc.Text, "\n")
	skip := 0
	for skip < len(lines) && strings.TrimSpace(lines[skip]) == "" {
		skip++
	}
	lines = lines[skip:]

	hdr, n := parseHeaderBlock(lines)
	body := lines[n:]
	res := Result{Header: hdr, Primary: -1}

	boundary := ""
	if ct := hdr.Get("Content-Type"); ct != "" {
		_, params := mediaType(ct)
		boundary = params["boundary"]
	}

	if boundary != "" {
		msg := strings.Join(lines, "\n")
		if parts, ok := e.readTree(sourceBytes(msg, doc)); ok {
			res.Parts = parts
			idx := e.primary(parts)
			dec := e.decodePart(parts[idx])
			res.Primary = idx
			res.Encoding = dec.Encoding
			res.HTML = e.clean(dec.Text)
			return res
		}
	}

	// The framing is broken enough that the MIME parser gave up; split on
	// delimiter lines instead.
	var raws []rawPart
	if boundary != "" {
		raws = splitParts(body, boundary)
	}
	if len(raws) == 0 {
		if guess := inferBoundary(body); guess != "" && guess != boundary {
			raws = splitParts(body, guess)
			if len(raws) > 0 {
				res.Degraded = true
				res.Warning = fmt.Errorf("%w: boundary %q not declared, inferred %q", ErrMalformedStructure, boundary, guess)
			}
		}
	}

	for _, rp := range raws {
		res.Parts = append(res.Parts, e.flatten(rp, doc)...)
	}

	if idx := e.primary(res.Parts); idx >= 0 {
		dec := e.decodePart(res.Parts[idx])
		res.Primary = idx
		res.Encoding = dec.Encoding
		res.HTML = e.clean(dec.Text)
		return res
	}

	return e.fallback(doc, hdr, body, res)
}

// mimeParser keeps part bodies as they appear in the message: transfer
// and charset decoding go through decodeTransfer and the Resolver.
var mimeParser = enmime.NewParser(
	enmime.RawContent(true),
	enmime.DisableCharacterDetection(true),
	enmime.MultipartWOBoundaryAsSinglePart(true),
)

// readTree parses a well-formed multipart message and returns its leaf parts
// depth-first. It reports false when the message has no part tree or no
// part that can serve as the primary one.
func (e *Extractor) readTree(raw []byte) ([]Part, bool) {
	root, err := mimeParser.ReadParts(bytes.NewReader(raw))
	if err != nil || root == nil || root.FirstChild == nil {
		return nil, false
	}
	var parts []Part
	var walk func(p *enmime.Part)
	walk = func(p *enmime.Part) {
		if p.FirstChild == nil {
			parts = append(parts, leafPart(p))
			return
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if len(parts) == 0 || e.primary(parts) < 0 {
		return nil, false
	}
	return parts, true
}

func leafPart(p *enmime.Part) Part {
	mt, params := mediaType(p.Header.Get("Content-Type"))
	cte := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
	return Part{
		Header:           p.Header,
		MediaType:        mt,
		Params:           params,
		TransferEncoding: cte,
		ContentID:        strings.Trim(p.Header.Get("Content-Id"), "<> "),
		ContentLocation:  p.Header.Get("Content-Location"),
		Body:             decodeTransfer(cte, p.Content),
	}
}

// flatten turns a raw part into leaf parts, descending into nested
// multiparts depth-first.
func (e *Extractor) flatten(rp rawPart, doc textenc.Decoded) []Part {
	mt, params := mediaType(rp.header.Get("Content-Type"))
	if strings.HasPrefix(mt, "multipart/") && params["boundary"] != "" {
		nested := splitParts(strings.Split(rp.body, "\n"), params["boundary"])
		if len(nested) > 0 {
			var out []Part
			for _, np := range nested {
				out = append(out, e.flatten(np, doc)...)
			}
			return out
		}
	}

	cte := strings.ToLower(rp.header.Get("Content-Transfer-Encoding"))
	return []Part{{
		Header:           rp.header,
		MediaType:        mt,
		Params:           params,
		TransferEncoding: cte,
		ContentID:        strings.Trim(rp.header.Get("Content-Id"), "<> "),
		ContentLocation:  rp.header.Get("Content-Location"),
		Body:             decodeTransfer(cte, sourceBytes(rp.body, doc)),
	}}
}

// sourceBytes recovers the original bytes of a span of decoded text.
func sourceBytes(text string, doc textenc.Decoded) []byte {
	if doc.Lossy || doc.Encoding == "" {
		return []byte(text)
	}
	b, err := textenc.Encode(text, doc.Encoding)
	if err != nil {
		return []byte(text)
	}
	return b
}

// primary selects the first text/html part, or failing that the first part
// whose decoded body contains an HTML structural tag.
func (e *Extractor) primary(parts []Part) int {
	for i, p := range parts {
		if p.IsHTML() {
			return i
		}
	}
	for i, p := range parts {
		if p.IsImage() {
			continue
		}
		if format.HasHTMLTags(e.decodePart(p).Text) {
			return i
		}
	}
	return -1
}

func (e *Extractor) decodePart(p Part) textenc.Decoded {
	r := e.resolver
	if cs := p.Charset(); cs != "" {
		r = r.Prepend(cs)
	}
	dec, err := r.Resolve(p.Body)
	if err != nil {
		return textenc.Resolve(p.Body)
	}
	return dec
}

var (
	htmlOpen  = regexp.MustCompile(`(?i)<html[\s>]`)
	htmlClose = regexp.MustCompile(`(?i)</html\s*>`)
	bodyOpen  = regexp.MustCompile(`(?i)<body[\s>]`)
	bodyClose = regexp.MustCompile(`(?i)</body\s*>`)
)

// fallback treats the whole message as a single quoted-printable part.
func (e *Extractor) fallback(doc textenc.Decoded, hdr textproto.MIMEHeader, body []string, res Result) Result {
	res.Degraded = true
	res.Primary = -1

	raw := DecodeQuotedPrintable(sourceBytes(doc.Text, doc))
	p := Part{Header: hdr, Body: raw, Params: map[string]string{}}
	if ct := hdr.Get("Content-Type"); ct != "" {
		_, p.Params = mediaType(ct)
	}
	dec := e.decodePart(p)
	res.Encoding = dec.Encoding

	if span, ok := htmlSpan(dec.Text); ok {
		res.HTML = e.clean(span)
		res.Warning = fmt.Errorf("%w: no primary part found, recovered HTML from the message text", ErrMalformedStructure)
		return res
	}

	rest := DecodeQuotedPrintable(sourceBytes(strings.Join(body, "\n"), doc))
	p.Body = rest
	res.HTML = e.clean(strings.TrimSpace(e.decodePart(p).Text))
	res.Warning = fmt.Errorf("%w: no primary part or HTML tag found", ErrMalformedStructure)
	return res
}

// htmlSpan returns the text from the first <html (or <body) tag through its
// closing tag, or through the end of text when the tag is never closed.
func htmlSpan(text string) (string, bool) {
	for _, pair := range [][2]*regexp.Regexp{{htmlOpen, htmlClose}, {bodyOpen, bodyClose}} {
		loc := pair[0].FindStringIndex(text)
		if loc == nil {
			continue
		}
		span := text[loc[0]:]
		if end := pair[1].FindStringIndex(span); end != nil {
			span = span[:end[1]]
		}
		return span, true
	}
	return "", false
}

func (e *Extractor) clean(html string) string {
	if e.keepBoilerplate {
		return html
	}
	return StripBoilerplate(html)
}
