// Package rtfdoc converts Rich Text Format documents to HTML.
//
// The converter keeps paragraphs, headings (outline levels and "heading N"
// styles), bold and italic runs, list paragraphs, tables and field results.
// Fonts, colors, pictures and embedded objects are dropped.
package rtfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/encoding"

	"github.com/trezero/docTomd/textenc"
)

// ErrInvalidDocument is returned when the input is not RTF.
var ErrInvalidDocument = errors.New("rtfdoc: not an RTF document")

// Metadata is read from the \info group.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
}

// BlockKind identifies the kind of a Block.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	ListItem
	Table
)

// Block is a unit of the converted body. HTML holds the inline markup of a
// paragraph, heading or list item; Rows holds the cell markup of a table.
type Block struct {
	Kind    BlockKind
	Level   int
	Ordered bool
	HTML    string
	Rows    [][]string
}

// Document is a parsed RTF document.
type Document struct {
	Blocks   []Block
	Metadata Metadata
}

type destination int

const (
	destText destination = iota
	destSkip
	destMeta
	destStyleSheet
	destStyleEntry
	destListText
)

// skipDestinations hold no body text.
var skipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "pict": true, "object": true,
	"header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
	"footnote": true, "annotation": true, "fldinst": true, "info": true,
	"listtable": true, "listoverridetable": true, "revtbl": true,
	"rsidtbl": true, "filetbl": true, "xmlnstbl": true, "themedata": true,
	"colorschememapping": true, "datastore": true, "latentstyles": true,
	"pgdsctbl": true, "generator": true, "nonshppict": true, "shppict": true,
	"pn": true, "pntxta": true, "pntxtb": true,
}

var symbolWords = map[string]string{
	"emdash":    "—",
	"endash":    "–",
	"bullet":    "•",
	"lquote":    "‘",
	"rquote":    "’",
	"ldblquote": "“",
	"rdblquote": "”",
	"emspace":   " ",
	"enspace":   " ",
	"qmspace":   " ",
	"tab":       "\t",
	"line":      "\n",
}

// paragraphWords set paragraph properties; they only apply in body text.
var paragraphWords = map[string]bool{
	"pard": true, "outlinelevel": true, "intbl": true, "ls": true, "ilvl": true,
}

type groupState struct {
	dest     destination
	bold     bool
	italic   bool
	uc       int
	styleNum int
	field    *string
}

type span struct {
	text         string
	bold, italic bool
}

type paragraph struct {
	spans     []span
	style     int
	outline   int
	inTable   bool
	list      bool
	listLevel int
	marker    strings.Builder
}

func (p *paragraph) resetProps() {
	p.style = 0
	p.outline = -1
	p.inTable = false
	p.list = false
	p.listLevel = 0
}

type parser struct {
	lex   lexer
	state groupState
	stack []groupState
	dec   *encoding.Decoder

	pending   []byte
	skip      int
	surrogate rune

	styles    map[int]string
	styleName strings.Builder
	capture   strings.Builder

	para     paragraph
	cellHTML []string
	cells    []string
	rows     [][]string

	doc Document
}

// Parse converts RTF source into blocks and metadata.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if !bytes.HasPrefix(trimmed, []byte(`{\rtf`)) {
		return nil, ErrInvalidDocument
	}

	p := &parser{
		lex:    lexer{src: trimmed},
		styles: make(map[int]string),
	}
	p.state.uc = 1
	p.para.outline = -1
	p.setCodepage(textenc.CP1252)
	p.run()
	return &p.doc, nil
}

func (p *parser) setCodepage(name string) {
	if _, enc, err := textenc.Lookup(name); err == nil {
		p.dec = enc.NewDecoder()
	}
}

// codepageName maps a Windows code page number to an encoding name.
func codepageName(cp int) string {
	switch cp {
	case 65001:
		return textenc.UTF8
	case 1252:
		return textenc.CP1252
	case 10000:
		return "macintosh"
	case 437, 850, 852, 855, 857, 860, 861, 862, 863, 865, 866, 869:
		return "ibm" + strconv.Itoa(cp)
	case 932:
		return "shift_jis"
	case 936:
		return "gbk"
	case 949:
		return "euc-kr"
	case 950:
		return "big5"
	}
	return "windows-" + strconv.Itoa(cp)
}

func (p *parser) run() {
	for {
		tok := p.lex.next()
		if tok.kind != tokText && tok.kind != tokHex {
			p.flushPending()
		}
		switch tok.kind {
		case tokEOF:
			p.endParagraph()
			p.flushTable()
			return
		case tokGroupStart:
			p.skip = 0
			p.stack = append(p.stack, p.state)
			if p.state.dest == destStyleSheet {
				p.state.dest = destStyleEntry
				p.state.styleNum = 0
				p.styleName.Reset()
			}
		case tokGroupEnd:
			p.skip = 0
			p.popGroup()
		case tokText:
			data := tok.data
			if p.skip > 0 {
				n := min(p.skip, len(data))
				data = data[n:]
				p.skip -= n
			}
			p.pending = append(p.pending, data...)
		case tokHex:
			if p.skip > 0 {
				p.skip--
				continue
			}
			p.pending = append(p.pending, tok.data...)
		case tokControlSymbol:
			if p.skip > 0 {
				p.skip--
				continue
			}
			p.symbol(tok.word)
		case tokControlWord:
			p.word(tok)
		}
	}
}

func (p *parser) popGroup() {
	closing := p.state
	if len(p.stack) == 0 {
		return
	}
	p.state = p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	switch {
	case closing.dest == destStyleEntry && p.state.dest == destStyleSheet:
		if closing.styleNum >= 0 {
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p.styleName.String()), ";"))
			p.styles[closing.styleNum] = name
		}
	case closing.dest == destMeta && p.state.dest != destMeta && closing.field != nil:
		*closing.field = strings.TrimSpace(p.capture.String())
	}
}

func (p *parser) flushPending() {
	if len(p.pending) == 0 {
		return
	}
	out, err := p.dec.Bytes(p.pending)
	if err != nil {
		out = p.pending
	}
	p.pending = p.pending[:0]
	p.emit(string(out))
}

func (p *parser) emit(s string) {
	switch p.state.dest {
	case destText:
		p.para.spans = append(p.para.spans, span{text: s, bold: p.state.bold, italic: p.state.italic})
	case destMeta:
		p.capture.WriteString(s)
	case destStyleEntry:
		p.styleName.WriteString(s)
	case destListText:
		p.para.marker.WriteString(s)
	}
}

func (p *parser) symbol(c string) {
	switch c {
	case "\\", "{", "}":
		p.emit(c)
	case "~":
		p.emit("\u00a0")
	case "_":
		p.emit("-")
	case "\n", "\r":
		if p.state.dest == destText {
			p.endParagraph()
		}
	case "*":
		p.state.dest = destSkip
	}
}

func (p *parser) word(tok token) {
	on := !tok.hasParam || tok.param != 0

	if s, ok := symbolWords[tok.word]; ok {
		if p.skip > 0 {
			p.skip--
			return
		}
		p.emit(s)
		return
	}
	if skipDestinations[tok.word] {
		p.state.dest = destSkip
		return
	}
	if paragraphWords[tok.word] && p.state.dest != destText {
		return
	}

	switch tok.word {
	case "ansi":
		p.setCodepage(textenc.CP1252)
	case "mac":
		p.setCodepage("macintosh")
	case "pc":
		p.setCodepage("ibm437")
	case "pca":
		p.setCodepage("ibm850")
	case "ansicpg":
		if tok.hasParam {
			p.setCodepage(codepageName(tok.param))
		}
	case "uc":
		if tok.hasParam && tok.param >= 0 {
			p.state.uc = tok.param
		}
	case "u":
		r := tok.param
		if r < 0 {
			r += 65536
		}
		p.skip = p.state.uc
		switch {
		case utf16.IsSurrogate(rune(r)) && r < 0xDC00:
			p.surrogate = rune(r)
		case utf16.IsSurrogate(rune(r)):
			p.emit(string(utf16.DecodeRune(p.surrogate, rune(r))))
			p.surrogate = 0
		default:
			p.emit(string(rune(r)))
		}

	case "title", "author", "subject", "keywords":
		p.state.dest = destMeta
		p.state.field = p.metaField(tok.word)
		p.capture.Reset()
	case "stylesheet":
		p.state.dest = destStyleSheet
	case "listtext", "pntext":
		p.state.dest = destListText
		p.para.list = true
		p.para.marker.Reset()

	case "s":
		if p.state.dest == destStyleEntry {
			p.state.styleNum = tok.param
		} else if p.state.dest == destText {
			p.para.style = tok.param
		}
	case "cs", "ds", "ts", "tsrowd":
		if p.state.dest == destStyleEntry {
			p.state.styleNum = -1
		}

	case "b":
		p.state.bold = on
	case "i":
		p.state.italic = on
	case "plain":
		p.state.bold, p.state.italic = false, false

	case "pard":
		p.para.resetProps()
	case "outlinelevel":
		p.para.outline = tok.param
	case "intbl":
		p.para.inTable = true
	case "ls":
		p.para.list = true
	case "ilvl":
		p.para.listLevel = tok.param

	case "par", "sect", "page":
		if p.state.dest == destText {
			p.endParagraph()
		}
	case "cell", "nestcell":
		p.endCell()
	case "row", "nestrow":
		if len(p.para.spans) > 0 || p.cellHTML != nil {
			p.endCell()
		}
		if p.cells != nil {
			p.rows = append(p.rows, p.cells)
			p.cells = nil
		}
	}
}

func (p *parser) metaField(name string) *string {
	switch name {
	case "title":
		return &p.doc.Metadata.Title
	case "author":
		return &p.doc.Metadata.Author
	case "subject":
		return &p.doc.Metadata.Subject
	default:
		return &p.doc.Metadata.Keywords
	}
}

// endParagraph closes the current paragraph. Inside a table the paragraph
// becomes part of the current cell.
func (p *parser) endParagraph() {
	spans := p.para.spans
	content := renderSpans(spans)
	p.para.spans = nil

	if p.para.inTable {
		if content != "" {
			p.cellHTML = append(p.cellHTML, content)
		}
		p.para.marker.Reset()
		return
	}

	p.flushTable()
	marker := strings.TrimSpace(p.para.marker.String())
	p.para.marker.Reset()
	if content == "" {
		return
	}

	if level := p.headingLevel(); level > 0 {
		for i := range spans {
			spans[i].bold, spans[i].italic = false, false
		}
		p.doc.Blocks = append(p.doc.Blocks, Block{Kind: Heading, Level: level, HTML: renderSpans(spans)})
		return
	}
	if p.para.list || marker != "" {
		p.doc.Blocks = append(p.doc.Blocks, Block{
			Kind:    ListItem,
			Level:   p.para.listLevel,
			Ordered: orderedMarker(marker),
			HTML:    content,
		})
		return
	}
	p.doc.Blocks = append(p.doc.Blocks, Block{Kind: Paragraph, HTML: content})
}

// endCell closes the current table cell.
func (p *parser) endCell() {
	if content := renderSpans(p.para.spans); content != "" {
		p.cellHTML = append(p.cellHTML, content)
	}
	p.para.spans = nil
	p.para.marker.Reset()
	p.cells = append(p.cells, strings.Join(p.cellHTML, "<br>"))
	p.cellHTML = nil
}

func (p *parser) flushTable() {
	if p.cells != nil {
		p.rows = append(p.rows, p.cells)
		p.cells = nil
	}
	if p.rows != nil {
		p.doc.Blocks = append(p.doc.Blocks, Block{Kind: Table, Rows: p.rows})
		p.rows = nil
	}
}

func (p *parser) headingLevel() int {
	level := 0
	if p.para.outline >= 0 && p.para.outline <= 8 {
		level = p.para.outline + 1
	} else if name, ok := p.styles[p.para.style]; ok {
		lower := strings.ToLower(name)
		if lower == "title" {
			level = 1
		} else if rest, ok := strings.CutPrefix(lower, "heading"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n >= 1 {
				level = n
			}
		}
	}
	return min(level, 6)
}

// orderedMarker reports whether a list marker such as "1." or "a)" denotes
// a numbered list.
func orderedMarker(marker string) bool {
	runes := []rune(marker)
	if len(runes) == 0 {
		return false
	}
	if unicode.IsDigit(runes[0]) {
		return true
	}
	return unicode.IsLetter(runes[0]) && strings.ContainsAny(marker, ".)")
}

// renderSpans produces the inline HTML of a paragraph. Adjacent runs with the
// same formatting are merged, the paragraph is trimmed and line breaks
// become <br>.
func renderSpans(spans []span) string {
	var merged []span
	for _, s := range spans {
		if n := len(merged); n > 0 && merged[n-1].bold == s.bold && merged[n-1].italic == s.italic {
			merged[n-1].text += s.text
			continue
		}
		merged = append(merged, s)
	}
	if len(merged) == 0 {
		return ""
	}
	merged[0].text = strings.TrimLeft(merged[0].text, " \t\n\u00a0")
	last := len(merged) - 1
	merged[last].text = strings.TrimRight(merged[last].text, " \t\n\u00a0")

	var sb strings.Builder
	for _, s := range merged {
		sb.WriteString(formatSpan(s))
	}
	return sb.String()
}

func formatSpan(s span) string {
	text := strings.ReplaceAll(html.EscapeString(s.text), "\n", "<br>")
	core := strings.TrimSpace(text)
	if core == "" || (!s.bold && !s.italic) {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]
	if s.italic {
		core = "<em>" + core + "</em>"
	}
	if s.bold {
		core = "<strong>" + core + "</strong>"
	}
	return lead + core + trail
}

// HTML renders the document. Consecutive list items form one list; the
// first row of each table is a header row.
func (d *Document) HTML() string {
	var sb strings.Builder
	sb.WriteString("<html><head>")
	if d.Metadata.Title != "" {
		sb.WriteString("<title>" + html.EscapeString(d.Metadata.Title) + "</title>")
	}
	sb.WriteString("</head><body>")

	openList := ""
	closeList := func() {
		if openList != "" {
			sb.WriteString("</" + openList + ">")
			openList = ""
		}
	}
	for _, b := range d.Blocks {
		if b.Kind != ListItem {
			closeList()
		}
		switch b.Kind {
		case Paragraph:
			sb.WriteString("<p>" + b.HTML + "</p>")
		case Heading:
			tag := "h" + strconv.Itoa(b.Level)
			sb.WriteString("<" + tag + ">" + b.HTML + "</" + tag + ">")
		case ListItem:
			tag := "ul"
			if b.Ordered {
				tag = "ol"
			}
			if openList != tag {
				closeList()
				sb.WriteString("<" + tag + ">")
				openList = tag
			}
			sb.WriteString("<li>" + b.HTML + "</li>")
		case Table:
			sb.WriteString("<table>")
			for i, row := range b.Rows {
				cell := "td"
				if i == 0 {
					cell = "th"
				}
				sb.WriteString("<tr>")
				for _, c := range row {
					sb.WriteString("<" + cell + ">" + c + "</" + cell + ">")
				}
				sb.WriteString("</tr>")
			}
			sb.WriteString("</table>")
		}
	}
	closeList()
	sb.WriteString("</body></html>")
	return sb.String()
}

// ToHTML converts RTF bytes to HTML in one step.
func ToHTML(data []byte) (string, Metadata, error) {
	doc, err := Parse(data)
	if err != nil {
		return "", Metadata{}, fmt.Errorf("parsing rtf: %w", err)
	}
	return doc.HTML(), doc.Metadata, nil
}
