package docx

import (
	"html"
	"strconv"
	"strings"
)

// htmlWriter renders the parsed document body as HTML.
type htmlWriter struct {
	sb        strings.Builder
	styles    *StyleResolver
	numbering *NumberingResolver
	rels      map[string]relationshipXML
	lists     listWriter
}

func newHTMLWriter(r *Reader) *htmlWriter {
	w := &htmlWriter{
		styles:    NewStyleResolver(r.styles),
		numbering: NewNumberingResolver(r.numbering),
		rels:      make(map[string]relationshipXML),
	}
	if r.rels != nil {
		for _, rel := range r.rels.Relationships {
			w.rels[rel.ID] = rel
		}
	}
	w.lists.sb = &w.sb
	return w
}

// document renders a complete HTML document.
func (w *htmlWriter) document(title string, blocks []blockXML) string {
	w.sb.WriteString("<html><head>")
	if title != "" {
		w.sb.WriteString("<title>" + html.EscapeString(title) + "</title>")
	}
	w.sb.WriteString("</head><body>")
	w.writeBlocks(blocks)
	w.sb.WriteString("</body></html>")
	return w.sb.String()
}

func (w *htmlWriter) writeBlocks(blocks []blockXML) {
	for _, b := range blocks {
		switch {
		case b.Table != nil:
			w.lists.close()
			w.writeTable(b.Table)
		case b.Paragraph != nil:
			w.writeParagraph(b.Paragraph)
		}
	}
	w.lists.close()
}

func (w *htmlWriter) writeParagraph(p *paragraphXML) {
	style := w.styles.Resolve(p.Properties.Style.Val)

	numID := p.Properties.NumPr.NumID.Val
	if IsListParagraph(numID) {
		level, _ := strconv.Atoi(p.Properties.NumPr.ILvl.Val)
		ordered, start := w.numbering.ResolveLevel(numID, level)
		content := w.inline(p, true)
		if content == "" {
			return
		}
		w.lists.item(level, ordered, start, content)
		return
	}
	if style.IsList {
		content := w.inline(p, true)
		if content == "" {
			return
		}
		w.lists.item(style.ListLevel, style.ListOrdered, 1, content)
		return
	}

	w.lists.close()

	level := 0
	if style.IsHeading {
		level = style.HeadingLevel
	} else if l := parseOutlineLevel(p.Properties.OutlineLvl.Val); p.Properties.OutlineLvl.Val != "" && l >= 0 {
		level = l + 1
	}

	if level > 0 {
		content := strings.TrimSpace(w.inline(p, false))
		if content == "" {
			return
		}
		tag := "h" + strconv.Itoa(min(level, 6))
		w.sb.WriteString("<" + tag + ">" + content + "</" + tag + ">")
		return
	}

	content := w.inline(p, true)
	if content == "" {
		return
	}
	w.sb.WriteString("<p>" + content + "</p>")
}

// span is a piece of inline content with uniform formatting.
type span struct {
	text   string
	bold   bool
	italic bool
	strike bool
	href   string
	br     bool
	img    string
}

// inline renders the runs and hyperlinks of p. Without formatted, bold and
// italic are dropped. Whitespace-only content renders as "".
func (w *htmlWriter) inline(p *paragraphXML, formatted bool) string {
	var spans []span
	add := func(r *runXML, href string) {
		props := r.Properties
		for _, c := range r.Content {
			switch c.Kind {
			case contentText:
				s := span{text: c.Text, href: href}
				if formatted {
					s.bold, s.italic, s.strike = props.Bold.On(), props.Italic.On(), props.Strike.On()
				}
				spans = append(spans, s)
			case contentBreak:
				spans = append(spans, span{br: true})
			case contentImage:
				if img := w.image(c.Image); img != "" {
					spans = append(spans, span{img: img})
				}
			}
		}
	}

	for _, in := range p.Inline {
		switch {
		case in.Run != nil:
			add(in.Run, "")
		case in.Link != nil:
			href := w.linkTarget(in.Link)
			for i := range in.Link.Runs {
				add(&in.Link.Runs[i], href)
			}
		}
	}

	spans = mergeSpans(spans)

	var sb strings.Builder
	hasContent := false
	for _, s := range spans {
		switch {
		case s.br:
			sb.WriteString("<br>")
		case s.img != "":
			sb.WriteString(s.img)
			hasContent = true
		default:
			sb.WriteString(formatSpan(s))
			if strings.TrimSpace(s.text) != "" {
				hasContent = true
			}
		}
	}
	if !hasContent {
		return ""
	}
	return sb.String()
}

// mergeSpans joins adjacent text spans with identical formatting.
func mergeSpans(spans []span) []span {
	var out []span
	for _, s := range spans {
		if n := len(out); n > 0 && !s.br && s.img == "" && !out[n-1].br && out[n-1].img == "" &&
			out[n-1].bold == s.bold && out[n-1].italic == s.italic &&
			out[n-1].strike == s.strike && out[n-1].href == s.href {
			out[n-1].text += s.text
			continue
		}
		out = append(out, s)
	}
	return out
}

// formatSpan wraps a text span in its formatting tags. Leading and trailing
// blanks stay outside the emphasis so the Markdown markers stay attached.
func formatSpan(s span) string {
	text := html.EscapeString(s.text)
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]

	if s.strike {
		core = "<del>" + core + "</del>"
	}
	if s.italic {
		core = "<em>" + core + "</em>"
	}
	if s.bold {
		core = "<strong>" + core + "</strong>"
	}
	if s.href != "" {
		core = `<a href="` + html.EscapeString(s.href) + `">` + core + "</a>"
	}
	return lead + core + trail
}

func (w *htmlWriter) linkTarget(h *hyperlinkXML) string {
	if h.ID != "" {
		if rel, ok := w.rels[h.ID]; ok {
			return rel.Target
		}
	}
	if h.Anchor != "" {
		return "#" + h.Anchor
	}
	return ""
}

// image renders a drawing as <img>, with the media path from the
// relationships part and the description as alt text.
func (w *htmlWriter) image(dr *drawingXML) string {
	g := dr.graphic()
	if g == nil {
		return ""
	}
	src := ""
	if g.Blip != nil {
		if rel, ok := w.rels[g.Blip.Embed]; ok {
			src = rel.Target
		}
	}
	alt := g.DocPr.Descr
	if alt == "" {
		alt = g.DocPr.Title
	}
	return `<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(alt) + `">`
}
