// Package msdoc extracts text from legacy Word (97-2003) binary documents
// and renders it as simple HTML.
//
// Only the main document story is read: paragraphs, line breaks, table
// cells and field results. Character and paragraph formatting is ignored.
package msdoc

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

var (
	// ErrInvalidDocument is returned for input that is not a readable Word
	// binary document.
	ErrInvalidDocument = errors.New("msdoc: invalid word document")

	// ErrEncrypted is returned for password-protected documents.
	ErrEncrypted = errors.New("msdoc: document is encrypted")

	// ErrUnsupported is returned for pre-Word 97 files.
	ErrUnsupported = errors.New("msdoc: unsupported word version")
)

// Block is a paragraph or, when Rows is set, a table.
type Block struct {
	Text string
	Rows [][]string
}

// IsTable reports whether the block is a table.
func (b Block) IsTable() bool { return b.Rows != nil }

// Metadata is read from the SummaryInformation property set.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
}

// Document is a parsed Word binary document.
type Document struct {
	Blocks   []Block
	Metadata Metadata
}

// Parse reads a compound file and extracts the main document text.
func Parse(data []byte) (*Document, error) {
	cfb, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{}
	streams := make(map[string][]byte)
	for entry, err := cfb.Next(); err == nil; entry, err = cfb.Next() {
		switch {
		case msoleps.IsMSOLEPS(entry.Initial) && entry.Name == "SummaryInformation":
			doc.Metadata = readSummary(entry)
		case entry.Name == "WordDocument", entry.Name == "0Table", entry.Name == "1Table":
			b, err := io.ReadAll(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidDocument, entry.Name, err)
			}
			streams[entry.Name] = b
		}
	}

	wordDoc, ok := streams["WordDocument"]
	if !ok {
		return nil, fmt.Errorf("%w: no WordDocument stream", ErrInvalidDocument)
	}
	f, err := parseFIB(wordDoc)
	if err != nil {
		return nil, err
	}
	if f.encrypted {
		return nil, ErrEncrypted
	}
	table, ok := streams[f.tableName]
	if !ok {
		return nil, fmt.Errorf("%w: no %s stream", ErrInvalidDocument, f.tableName)
	}
	pieces, err := parsePieceTable(table, f)
	if err != nil {
		return nil, err
	}
	text, err := mainText(wordDoc, pieces, f.ccpText)
	if err != nil {
		return nil, err
	}

	doc.Blocks = splitBlocks(text)
	return doc, nil
}

// readSummary extracts the descriptive properties. A malformed property set
// yields empty metadata.
func readSummary(r io.Reader) Metadata {
	props, err := msoleps.NewFrom(r)
	if err != nil {
		return Metadata{}
	}
	var m Metadata
	for _, p := range props.Property {
		value := strings.TrimSpace(strings.TrimRight(p.String(), "\x00"))
		switch p.Name {
		case "Title":
			m.Title = value
		case "Author":
			m.Author = value
		case "Subject":
			m.Subject = value
		case "Keywords":
			m.Keywords = value
		}
	}
	return m
}

// Special characters of the main document story.
const (
	chPicture    = 0x01
	chFootnote   = 0x02
	chAnnotation = 0x05
	chCellMark   = 0x07
	chDrawing    = 0x08
	chTab        = 0x09
	chLineBreak  = 0x0B
	chPageBreak  = 0x0C
	chParagraph  = 0x0D
	chFieldBegin = 0x13
	chFieldSep   = 0x14
	chFieldEnd   = 0x15
	chNBHyphen   = 0x1E
	chSoftHyphen = 0x1F
)

// splitBlocks turns the story text into paragraphs and tables. Field codes
// are dropped and only their results kept. A cell mark directly after
// another ends the table row.
func splitBlocks(text string) []Block {
	var (
		blocks   []Block
		cur      strings.Builder
		cells    []string
		rows     [][]string
		lastCell bool
		// one entry per open field; true once its separator was seen
		fields []bool
	)

	flushTable := func() {
		if rows != nil {
			blocks = append(blocks, Block{Rows: rows})
			rows = nil
		}
	}
	flushParagraph := func() {
		flushTable()
		if t := strings.TrimSpace(cur.String()); t != "" {
			blocks = append(blocks, Block{Text: t})
		}
		cur.Reset()
	}

	for _, r := range text {
		switch r {
		case chFieldBegin:
			fields = append(fields, false)
			continue
		case chFieldSep:
			if n := len(fields); n > 0 {
				fields[n-1] = true
			}
			continue
		case chFieldEnd:
			if n := len(fields); n > 0 {
				fields = fields[:n-1]
			}
			continue
		}
		if inFieldCode(fields) {
			continue
		}

		if r != chCellMark {
			lastCell = false
		}
		switch r {
		case chCellMark:
			if lastCell && cur.Len() == 0 {
				rows = append(rows, cells)
				cells = nil
				lastCell = false
				continue
			}
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
			lastCell = true
		case chParagraph, chPageBreak:
			if cells != nil {
				cur.WriteByte('\n')
				continue
			}
			flushParagraph()
		case chLineBreak:
			cur.WriteByte('\n')
		case chTab:
			cur.WriteByte('\t')
		case chNBHyphen:
			cur.WriteByte('-')
		case chPicture, chFootnote, chAnnotation, chDrawing, chSoftHyphen:
		default:
			if r < 0x20 {
				continue
			}
			cur.WriteRune(r)
		}
	}
	if cells != nil {
		rows = append(rows, cells)
	}
	flushParagraph()
	return blocks
}

func inFieldCode(fields []bool) bool {
	for _, separated := range fields {
		if !separated {
			return true
		}
	}
	return false
}

// HTML renders the document. The first row of each table is a header row.
func (d *Document) HTML() string {
	var sb strings.Builder
	sb.WriteString("<html><head>")
	if d.Metadata.Title != "" {
		sb.WriteString("<title>" + html.EscapeString(d.Metadata.Title) + "</title>")
	}
	sb.WriteString("</head><body>")
	for _, b := range d.Blocks {
		if !b.IsTable() {
			sb.WriteString("<p>" + escapeLines(b.Text) + "</p>")
			continue
		}
		sb.WriteString("<table>")
		for i, row := range b.Rows {
			tag := "td"
			if i == 0 {
				tag = "th"
			}
			sb.WriteString("<tr>")
			for _, c := range row {
				sb.WriteString("<" + tag + ">" + escapeLines(c) + "</" + tag + ">")
			}
			sb.WriteString("</tr>")
		}
		sb.WriteString("</table>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func escapeLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(strings.TrimSpace(l))
	}
	return strings.Join(lines, "<br>")
}

// ToHTML converts Word binary bytes to HTML in one step.
func ToHTML(data []byte) (string, Metadata, error) {
	doc, err := Parse(data)
	if err != nil {
		return "", Metadata{}, err
	}
	return doc.HTML(), doc.Metadata, nil
}
