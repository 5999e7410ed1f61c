package doctomd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/trezero/docTomd/docx"
	"github.com/trezero/docTomd/format"
	"github.com/trezero/docTomd/frontmatter"
	"github.com/trezero/docTomd/htmldoc"
	"github.com/trezero/docTomd/mhtml"
	"github.com/trezero/docTomd/msdoc"
	"github.com/trezero/docTomd/normalize"
	"github.com/trezero/docTomd/render"
	"github.com/trezero/docTomd/rtfdoc"
	"github.com/trezero/docTomd/textenc"
)

// Recognizer turns image bytes into text. *ocr.Client satisfies it.
type Recognizer interface {
	RecognizeImage(data []byte) (string, error)
}

// Converter provides a fluent interface for converting one document.
// Each configuration method returns a new Converter, so a configured
// Converter can be shared and reused.
type Converter struct {
	path    string
	doc     RawDocument
	loaded  bool
	options Options
	log     zerolog.Logger
	ocr     Recognizer
}

func (c *Converter) clone() *Converter {
	n := *c
	n.options = c.options.clone()
	return &n
}

// ============================================================================
// Configuration Methods (return new Converter instance)
// ============================================================================

// WithOptions replaces all options.
func (c *Converter) WithOptions(opts Options) *Converter {
	n := c.clone()
	n.options = opts.clone()
	return n
}

// WithLogger sets the logger used for detection decisions and degraded
// extractions. The default logger discards everything.
func (c *Converter) WithLogger(l zerolog.Logger) *Converter {
	n := c.clone()
	n.log = l
	return n
}

// WithRecognizer enables image text recovery with r instead of the built-in
// Tesseract client.
func (c *Converter) WithRecognizer(r Recognizer) *Converter {
	n := c.clone()
	n.ocr = r
	n.options.OCRImages = r != nil
	return n
}

// KeepImages keeps image syntax in the output instead of the alt text.
func (c *Converter) KeepImages() *Converter {
	n := c.clone()
	n.options.IgnoreImages = false
	return n
}

// IgnoreLinks renders link text without the target.
//
// Example:
//
//	md, _, err := doctomd.Open("page.html").IgnoreLinks().Markdown()
func (c *Converter) IgnoreLinks() *Converter {
	n := c.clone()
	n.options.IgnoreLinks = true
	return n
}

// IgnoreEmphasis renders bold, italic and struck-through text as plain text.
func (c *Converter) IgnoreEmphasis() *Converter {
	n := c.clone()
	n.options.IgnoreEmphasis = true
	return n
}

// BodyWidth wraps paragraphs and list items at width columns.
func (c *Converter) BodyWidth(width int) *Converter {
	n := c.clone()
	n.options.BodyWidth = width
	return n
}

// Encodings sets the ordered decoding chain.
//
// Example:
//
//	res, err := doctomd.Open("legacy.html").Encodings("cp1252", "utf-8").Convert()
func (c *Converter) Encodings(names ...string) *Converter {
	n := c.clone()
	n.options.Encodings = append([]string(nil), names...)
	return n
}

// StrictDecoding fails with ErrDecodingExhausted instead of decoding
// lossily when no encoding of the chain fits.
func (c *Converter) StrictDecoding() *Converter {
	n := c.clone()
	n.options.StrictDecoding = true
	return n
}

// Navigation sets how page chrome is removed from HTML content.
func (c *Converter) Navigation(mode htmldoc.NavigationExclusionMode) *Converter {
	n := c.clone()
	n.options.Navigation = mode
	return n
}

// OCRImages runs embedded images through OCR. An empty language keeps the
// current one.
func (c *Converter) OCRImages(language string) *Converter {
	n := c.clone()
	n.options.OCRImages = true
	if language != "" {
		n.options.OCRLanguage = language
	}
	return n
}

// Options returns a copy of the current options.
func (c *Converter) Options() Options {
	return c.options.clone()
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Markdown converts the document and returns its Markdown and warnings.
func (c *Converter) Markdown() (string, []Warning, error) {
	res, err := c.Convert()
	if err != nil {
		return "", res.Warnings, err
	}
	return res.Markdown, res.Warnings, nil
}

// Convert runs the pipeline Loaded, Decoded, Classified, Extracted,
// Rendered, Normalized, Done. On failure the returned Result carries the
// provenance gathered so far but no Markdown, and the error is an *Error.
func (c *Converter) Convert() (*Result, error) {
	cv := &conversion{
		opts:       c.options,
		recognizer: c.ocr,
		name:       c.doc.Name,
		ext:        c.doc.Ext,
		log:        c.log.With().Str("source", c.doc.Name).Logger(),
		res:        &Result{Source: c.doc.Name, Format: format.Unknown, Stage: StageLoaded},
	}

	cv.raw = c.doc.Data
	if !c.loaded {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return cv.res, &Error{Kind: ErrUnreadableSource, Stage: StageLoaded, Source: cv.name, Err: err}
		}
		cv.raw = data
	}

	for _, s := range steps {
		if err := s.run(cv); err != nil {
			err.Stage = s.next
			err.Source = cv.name
			cv.log.Debug().Err(err).Str("stage", s.next.String()).Msg("conversion failed")
			return cv.res, err
		}
		cv.res.Stage = s.next
	}
	return cv.res, nil
}

// conversion is the state of one Convert call.
type conversion struct {
	opts       Options
	recognizer Recognizer
	name       string
	ext        string
	log        zerolog.Logger
	res        *Result

	raw      []byte
	resolver *textenc.Resolver
	decoded  textenc.Decoded
	extract  *mhtml.Result

	html      string
	markdown  string
	passthru  bool
	htmlTitle string
	metaTitle string
}

var steps = []struct {
	next Stage
	run  func(*conversion) *Error
}{
	{StageDecoded, (*conversion).decode},
	{StageClassified, (*conversion).classify},
	{StageExtracted, (*conversion).extractContent},
	{StageRendered, (*conversion).render},
	{StageNormalized, (*conversion).normalize},
	{StageDone, (*conversion).finish},
}

// markdownExts are the extensions whose leading YAML block is frontmatter.
// In other text files it is content.
var markdownExts = map[string]bool{".md": true, ".markdown": true}

func (cv *conversion) warn(stage Stage, code, msg string) {
	cv.res.Warnings = append(cv.res.Warnings, Warning{Code: code, Message: msg, Stage: stage})
}

func (cv *conversion) decode() *Error {
	r, err := cv.opts.resolver()
	if err != nil {
		return &Error{Kind: ErrInvalidOptions, Err: err}
	}
	cv.resolver = r

	dec, err := r.Resolve(cv.raw)
	if err != nil {
		// Word binaries are classified from their magic bytes, not their text.
		if !format.IsOLE(cv.raw) && !format.IsZIP(cv.raw) {
			return &Error{Kind: ErrDecodingExhausted, Err: fmt.Errorf("tried %s", strings.Join(r.Names(), ", "))}
		}
	}
	cv.decoded = dec
	cv.res.Encoding = dec.Encoding
	return nil
}

func (cv *conversion) classify() *Error {
	f, rule := format.ClassifyWithRules(format.DefaultRules, cv.decoded.Text, cv.raw, cv.ext)
	cv.res.Format = f
	cv.log.Debug().
		Str("format", f.String()).
		Str("rule", rule).
		Str("encoding", cv.decoded.Encoding).
		Msg("classified document")

	switch f {
	case format.DOCX, format.LegacyDoc:
		cv.res.Encoding = ""
	case format.Unknown:
	default:
		if cv.decoded.Lossy {
			cv.warn(StageDecoded, WarnLossyDecoding, "no encoding of the chain fit; invalid bytes were replaced")
		}
	}
	return nil
}

func (cv *conversion) extractContent() *Error {
	switch cv.res.Format {
	case format.MHTML:
		r := mhtml.New(mhtml.WithResolver(cv.resolver)).Extract(cv.decoded)
		cv.extract = &r
		cv.html = r.HTML
		if r.Encoding != "" {
			cv.res.Encoding = r.Encoding
		}
		if r.Degraded {
			cv.res.Degraded = true
			cv.warn(StageExtracted, WarnMimeStructure, r.Warning.Error())
			cv.log.Warn().Err(r.Warning).Msg("degraded MIME extraction")
		}

	case format.HTML:
		cv.html = cv.decoded.Text

	case format.DOCX:
		html, meta, err := docx.ToHTML(cv.raw)
		if err != nil {
			return &Error{Kind: ErrUnsupportedOrCorruptDocument, Err: err}
		}
		cv.html, cv.metaTitle = html, meta.Title

	case format.LegacyDoc:
		html, meta, err := msdoc.ToHTML(cv.raw)
		if err != nil {
			return &Error{Kind: ErrUnsupportedOrCorruptDocument, Err: err}
		}
		cv.html, cv.metaTitle = html, meta.Title

	case format.RTF:
		html, meta, err := rtfdoc.ToHTML(cv.raw)
		if err != nil {
			return &Error{Kind: ErrUnsupportedOrCorruptDocument, Err: err}
		}
		cv.html, cv.metaTitle = html, meta.Title

	case format.PlainText:
		cv.passthru = true
		cv.markdown = cv.decoded.Text
		if !markdownExts[cv.ext] {
			break
		}
		meta, body, found, err := frontmatter.Split(cv.decoded.Text)
		if err != nil {
			cv.warn(StageExtracted, WarnFrontmatter, err.Error())
		}
		if found {
			cv.metaTitle = meta.Title
		}
		cv.markdown = body

	default:
		return &Error{Kind: ErrUnclassifiableContent}
	}
	return nil
}

func (cv *conversion) render() *Error {
	if cv.passthru {
		return nil
	}

	doc, err := htmldoc.Parse(cv.html)
	if err != nil {
		return &Error{Kind: ErrUnsupportedOrCorruptDocument, Err: err}
	}
	cv.htmlTitle = doc.Title()

	if cv.opts.OCRImages && cv.extract != nil {
		cv.recognizeImages(doc)
	}

	cleaned, err := doc.Clean(htmldoc.Options{Navigation: cv.opts.Navigation})
	if err != nil {
		return &Error{Kind: ErrUnsupportedOrCorruptDocument, Err: err}
	}

	md, err := render.New(render.Options{
		IgnoreLinks:    cv.opts.IgnoreLinks,
		IgnoreEmphasis: cv.opts.IgnoreEmphasis,
		IgnoreImages:   cv.opts.IgnoreImages,
		BodyWidth:      cv.opts.BodyWidth,
	}).Markdown(cleaned)
	if err != nil {
		return &Error{Kind: ErrUnsupportedOrCorruptDocument, Err: err}
	}
	cv.markdown = md
	return nil
}

func (cv *conversion) normalize() *Error {
	cv.markdown = normalize.Normalize(cv.markdown, normalize.Options{
		IgnoreImages: cv.opts.IgnoreImages,
		Verbatim:     cv.passthru,
	})
	if cv.markdown == "" {
		cv.warn(StageNormalized, WarnEmptyOutput, "document has no text content")
	}
	return nil
}

func (cv *conversion) finish() *Error {
	cv.res.Markdown = cv.markdown
	cv.res.Title = resolveTitle(cv.markdown, cv.name, cv.htmlTitle, cv.metaTitle)
	cv.res.DocID = DocID(cv.raw)
	cv.log.Debug().
		Str("format", cv.res.Format.String()).
		Str("title", cv.res.Title).
		Int("warnings", len(cv.res.Warnings)).
		Msg("converted document")
	return nil
}
