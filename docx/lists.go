package docx

import (
	"strconv"
	"strings"
)

// NumberingResolver resolves numbering definitions from numbering.xml.
type NumberingResolver struct {
	abstractNums map[string]*abstractNumXML // abstractNumId -> definition
	numMappings  map[string]string          // numId -> abstractNumId
}

// NewNumberingResolver creates a resolver from parsed numbering.xml.
func NewNumberingResolver(numbering *numberingXML) *NumberingResolver {
	nr := &NumberingResolver{
		abstractNums: make(map[string]*abstractNumXML),
		numMappings:  make(map[string]string),
	}
	if numbering == nil {
		return nr
	}
	for i := range numbering.AbstractNums {
		an := &numbering.AbstractNums[i]
		nr.abstractNums[an.AbstractNumID] = an
	}
	for _, num := range numbering.Nums {
		nr.numMappings[num.NumID] = num.AbstractNumID.Val
	}
	return nr
}

// ResolveLevel reports whether the given list level is numbered and the
// number it starts at. Unknown definitions are treated as bullets.
func (nr *NumberingResolver) ResolveLevel(numID string, level int) (ordered bool, startAt int) {
	startAt = 1
	abstractNum, ok := nr.abstractNums[nr.numMappings[numID]]
	if !ok {
		return false, startAt
	}

	levelStr := strconv.Itoa(level)
	for _, lvl := range abstractNum.Levels {
		if lvl.ILvl != levelStr {
			continue
		}
		switch lvl.NumFmt.Val {
		case "decimal", "decimalZero", "lowerLetter", "upperLetter", "lowerRoman", "upperRoman":
			ordered = true
		}
		if s, err := strconv.Atoi(lvl.Start.Val); err == nil {
			startAt = s
		}
		return ordered, startAt
	}
	return false, startAt
}

// IsListParagraph returns true if the paragraph has numbering properties.
func IsListParagraph(numID string) bool {
	return numID != "" && numID != "0"
}

// listWriter emits nested <ul>/<ol> markup for a run of list paragraphs.
// Every open list level has an open <li>.
type listWriter struct {
	sb    *strings.Builder
	stack []bool // ordered flag per open level
}

// item writes a list item at the given 0-based level.
func (lw *listWriter) item(level int, ordered bool, startAt int, content string) {
	if level < 0 {
		level = 0
	}
	for len(lw.stack) > level+1 {
		lw.closeLevel()
	}
	if len(lw.stack) == level+1 {
		if lw.stack[level] != ordered {
			lw.closeLevel()
		} else {
			lw.sb.WriteString("</li>")
		}
	}
	for len(lw.stack) < level+1 {
		isTarget := len(lw.stack) == level
		listOrdered := ordered
		if !isTarget {
			listOrdered = false
		}
		switch {
		case listOrdered && startAt != 1 && isTarget:
			lw.sb.WriteString(`<ol start="` + strconv.Itoa(startAt) + `">`)
		case listOrdered:
			lw.sb.WriteString("<ol>")
		default:
			lw.sb.WriteString("<ul>")
		}
		lw.stack = append(lw.stack, listOrdered)
		if !isTarget {
			lw.sb.WriteString("<li>")
		}
	}
	lw.sb.WriteString("<li>")
	lw.sb.WriteString(content)
}

func (lw *listWriter) closeLevel() {
	top := lw.stack[len(lw.stack)-1]
	lw.stack = lw.stack[:len(lw.stack)-1]
	if top {
		lw.sb.WriteString("</li></ol>")
	} else {
		lw.sb.WriteString("</li></ul>")
	}
}

// close ends every open list.
func (lw *listWriter) close() {
	for len(lw.stack) > 0 {
		lw.closeLevel()
	}
}
