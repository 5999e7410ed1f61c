package docx

import (
	"encoding/xml"
	"strings"
)

// documentXML represents the structure of word/document.xml
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    bodyXML  `xml:"body"`
}

// bodyXML holds the block-level content of the body, a table cell or a
// content control, in document order.
type bodyXML struct {
	Blocks []blockXML
}

// blockXML is either a paragraph or a table.
type blockXML struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	blocks, err := readBlocks(d, nil)
	b.Blocks = blocks
	return err
}

// sdtXML is a structured document tag (content control).
type sdtXML struct {
	Content bodyXML `xml:"sdtContent"`
}

// readBlocks consumes tokens up to the end of the current element and
// collects paragraphs and tables in order. other gets the first look at each
// child element and reports whether it consumed it.
func readBlocks(d *xml.Decoder, other func(xml.StartElement) (bool, error)) ([]blockXML, error) {
	var blocks []blockXML
	for {
		tok, err := d.Token()
		if err != nil {
			return blocks, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if other != nil {
				handled, err := other(t)
				if err != nil {
					return blocks, err
				}
				if handled {
					continue
				}
			}
			switch t.Name.Local {
			case "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return blocks, err
				}
				blocks = append(blocks, blockXML{Paragraph: &p})
			case "tbl":
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return blocks, err
				}
				blocks = append(blocks, blockXML{Table: &tbl})
			case "sdt":
				var sdt sdtXML
				if err := d.DecodeElement(&sdt, &t); err != nil {
					return blocks, err
				}
				blocks = append(blocks, sdt.Content.Blocks...)
			default:
				if err := d.Skip(); err != nil {
					return blocks, err
				}
			}
		case xml.EndElement:
			return blocks, nil
		}
	}
}

// paragraphXML represents a paragraph element (<w:p>). Inline holds runs and
// hyperlinks in order; tracked insertions and simple fields are flattened
// into it, deletions are dropped.
type paragraphXML struct {
	Properties paragraphPropsXML
	Inline     []inlineXML
}

// inlineXML is a run or a hyperlink.
type inlineXML struct {
	Run  *runXML
	Link *hyperlinkXML
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := d.DecodeElement(&p.Properties, &t); err != nil {
					return err
				}
			case "r":
				var r runXML
				if err := d.DecodeElement(&r, &t); err != nil {
					return err
				}
				p.Inline = append(p.Inline, inlineXML{Run: &r})
			case "hyperlink":
				var h hyperlinkXML
				if err := d.DecodeElement(&h, &t); err != nil {
					return err
				}
				p.Inline = append(p.Inline, inlineXML{Link: &h})
			case "ins", "smartTag", "fldSimple", "customXml":
				var inner paragraphXML
				if err := d.DecodeElement(&inner, &t); err != nil {
					return err
				}
				p.Inline = append(p.Inline, inner.Inline...)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style      valXML            `xml:"pStyle"`
	NumPr      numberingPropsXML `xml:"numPr"`
	OutlineLvl valXML            `xml:"outlineLvl"`
}

// valXML is an element carrying a single w:val attribute.
type valXML struct {
	Val string `xml:"val,attr"`
}

// numberingPropsXML represents numbering properties for lists.
type numberingPropsXML struct {
	ILvl  valXML `xml:"ilvl"`
	NumID valXML `xml:"numId"`
}

// runXML represents a text run (<w:r>) with its content in order.
type runXML struct {
	Properties runPropsXML
	Content    []runContent
}

type contentKind int

const (
	contentText contentKind = iota
	contentBreak
	contentImage
)

// runContent is one piece of a run: text, a line break or an image.
type runContent struct {
	Kind  contentKind
	Text  string
	Image *drawingXML
}

func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := d.DecodeElement(&r.Properties, &t); err != nil {
					return err
				}
			case "t":
				var text string
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContent{Kind: contentText, Text: text})
			case "tab":
				r.Content = append(r.Content, runContent{Kind: contentText, Text: "\t"})
				if err := d.Skip(); err != nil {
					return err
				}
			case "noBreakHyphen":
				r.Content = append(r.Content, runContent{Kind: contentText, Text: "-"})
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				if attr(t, "type") != "page" {
					r.Content = append(r.Content, runContent{Kind: contentBreak})
				}
				if err := d.Skip(); err != nil {
					return err
				}
			case "sym":
				if s := symbolText(attr(t, "char")); s != "" {
					r.Content = append(r.Content, runContent{Kind: contentText, Text: s})
				}
				if err := d.Skip(); err != nil {
					return err
				}
			case "drawing":
				var dr drawingXML
				if err := d.DecodeElement(&dr, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContent{Kind: contentImage, Image: &dr})
			case "AlternateContent":
				var ac alternateContentXML
				if err := d.DecodeElement(&ac, &t); err != nil {
					return err
				}
				for _, txt := range ac.Fallback.Text {
					r.Content = append(r.Content, runContent{Kind: contentText, Text: txt})
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// symbolText decodes a w:sym character code. Symbol-font code points in the
// private use area have no portable rendering and are dropped.
func symbolText(code string) string {
	var r rune
	for _, c := range strings.ToUpper(code) {
		switch {
		case c >= '0' && c <= '9':
			r = r*16 + (c - '0')
		case c >= 'A' && c <= 'F':
			r = r*16 + (c - 'A' + 10)
		default:
			return ""
		}
	}
	if r < 0x20 || (r >= 0xE000 && r <= 0xF8FF) {
		return ""
	}
	return string(r)
}

// alternateContentXML represents mc:AlternateContent; only the fallback text
// is used.
type alternateContentXML struct {
	Fallback struct {
		Text []string `xml:"t"`
	} `xml:"Fallback"`
}

// runPropsXML represents run properties (<w:rPr>).
type runPropsXML struct {
	Bold   boolXML `xml:"b"`
	Italic boolXML `xml:"i"`
	Strike boolXML `xml:"strike"`
}

// boolXML represents an on/off property; presence without val means on.
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

// On reports whether the property is set.
func (b boolXML) On() bool {
	return b.XMLName.Local != "" && b.Val != "false" && b.Val != "0" && b.Val != "off"
}

// drawingXML represents an embedded drawing/image.
type drawingXML struct {
	Inline *graphicXML `xml:"inline"`
	Anchor *graphicXML `xml:"anchor"`
}

// graphicXML is the common shape of inline and anchored images.
type graphicXML struct {
	DocPr docPrXML `xml:"docPr"`
	Blip  *blipXML `xml:"graphic>graphicData>pic>blipFill>blip"`
}

func (dr *drawingXML) graphic() *graphicXML {
	if dr.Inline != nil {
		return dr.Inline
	}
	return dr.Anchor
}

// docPrXML represents document properties of an image.
type docPrXML struct {
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
	Title string `xml:"title,attr"`
}

// blipXML represents an image reference.
type blipXML struct {
	Embed string `xml:"embed,attr"` // Relationship ID
}

// hyperlinkXML represents a hyperlink. ID refers to an external target in
// the relationships part; Anchor names a bookmark in the document.
type hyperlinkXML struct {
	ID     string   `xml:"id,attr"`
	Anchor string   `xml:"anchor,attr"`
	Runs   []runXML `xml:"r"`
}

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	Properties struct {
		Header boolXML `xml:"tblHeader"`
	} `xml:"trPr"`
	Cells []tableCellXML `xml:"tc"`
}

// tableCellXML represents a table cell (<w:tc>).
type tableCellXML struct {
	Properties cellPropsXML
	Blocks     []blockXML
}

func (c *tableCellXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	blocks, err := readBlocks(d, func(t xml.StartElement) (bool, error) {
		if t.Name.Local != "tcPr" {
			return false, nil
		}
		return true, d.DecodeElement(&c.Properties, &t)
	})
	c.Blocks = blocks
	return err
}

// cellPropsXML represents cell properties.
type cellPropsXML struct {
	GridSpan valXML    `xml:"gridSpan"`
	VMerge   vMergeXML `xml:"vMerge"`
}

// vMergeXML represents vertical merge.
type vMergeXML struct {
	XMLName xml.Name `xml:"vMerge"`
	Val     string   `xml:"val,attr"` // "restart" or empty (continue)
}
