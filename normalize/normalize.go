// Package normalize cleans up rendered Markdown for retrieval pipelines.
//
// Block structure is taken from goldmark, so code blocks, headings, list
// items and tables are recognized the way a CommonMark renderer sees them
// and not by line-prefix guessing. Normalize is deterministic and
// idempotent.
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// maxBlankLines is the longest run of blank lines kept outside code.
const maxBlankLines = 2

// Options controls Normalize.
type Options struct {
	// IgnoreImages replaces image syntax by its alt text.
	IgnoreImages bool
	// Verbatim keeps the layout of text that was not produced by the HTML
	// renderer: runs of spaces, list markers, pipe tables and setext
	// headings stay as written.
	Verbatim bool
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

	atxRe        = regexp.MustCompile(`^ {0,3}#{1,6}([ \t]|\n|$)`)
	itemMarkerRe = regexp.MustCompile(`^(\s*)([-+*]|\d{1,9}[.)])([ \t]+|$)`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\](\([^)]*\)|\[[^\]]*\])`)
)

// heading is a top-level heading spanning lines start..end.
type heading struct {
	start, end int
	level      int
	text       string
	setext     bool
}

// table is a top-level pipe table spanning lines start..end.
type table struct {
	start, end int
	header     int
	rows       []int
	aligns     []east.Alignment
}

// layout is what goldmark found in the document, keyed by line number.
type layout struct {
	code     map[int]bool
	items    map[int]bool // list item start line -> ordered
	headings map[int]heading
	tables   map[int]table
}

// Normalize returns the cleaned Markdown:
//   - line endings become LF and trailing whitespace is trimmed;
//   - headings are re-levelled so the shallowest is level 1 and setext
//     headings become ATX headings;
//   - list markers become "-" or "N.";
//   - pipe tables are re-padded;
//   - runs of spaces are collapsed outside code;
//   - at most two consecutive blank lines are kept;
//   - with IgnoreImages, images are replaced by their alt text.
//
// With Verbatim only the line endings, trailing whitespace, blank lines,
// ATX heading levels and images are touched. Code blocks are only trimmed
// of trailing whitespace.
func Normalize(md string, opts Options) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = strings.ReplaceAll(md, "\r", "\n")

	lines := strings.Split(md, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	src := []byte(strings.Join(lines, "\n"))
	lay := analyze(src)

	rewrite := func(h heading) bool { return !opts.Verbatim || !h.setext }
	minLevel := 0
	for _, h := range lay.headings {
		if rewrite(h) && (minLevel == 0 || h.level < minLevel) {
			minLevel = h.level
		}
	}
	shift := max(minLevel-1, 0)

	var (
		out  []string
		code []bool
	)
	emit := func(line string, isCode bool) {
		if !isCode {
			line = strings.TrimRight(line, " \t")
		}
		out = append(out, line)
		code = append(code, isCode)
	}

	for i := 0; i < len(lines); i++ {
		if lay.code[i] {
			emit(lines[i], true)
			continue
		}
		if h, ok := lay.headings[i]; ok && rewrite(h) {
			level := min(max(h.level-shift, 1), 6)
			emit(strings.Repeat("#", level)+" "+inline(h.text, opts), false)
			i = h.end
			continue
		}
		if t, ok := lay.tables[i]; ok && !opts.Verbatim {
			for _, row := range formatTable(lines, t, opts) {
				emit(row, false)
			}
			i = t.end
			continue
		}

		line := lines[i]
		if ordered, ok := lay.items[i]; ok && !opts.Verbatim {
			line = unifyMarker(line, ordered)
		}
		emit(inline(line, opts), false)
	}

	return joinBlocks(out, code)
}

// analyze parses src and records the lines that need rewriting.
func analyze(src []byte) layout {
	lay := layout{
		code:     make(map[int]bool),
		items:    make(map[int]bool),
		headings: make(map[int]heading),
		tables:   make(map[int]table),
	}

	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	lineOf := func(off int) int {
		return sort.Search(len(starts), func(i int) bool { return starts[i] > off }) - 1
	}
	markSegments := func(segs *text.Segments) {
		for i := 0; i < segs.Len(); i++ {
			lay.code[lineOf(segs.At(i).Start)] = true
		}
	}

	doc := markdown.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock:
			markSegments(n.Lines())
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			markSegments(n.Lines())
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			markSegments(n.Lines())
			if n.HasClosure() {
				lay.code[lineOf(n.ClosureLine.Start)] = true
			}
			return ast.WalkSkipChildren, nil

		case *ast.Heading:
			if n.Parent() == nil || n.Parent().Kind() != ast.KindDocument || n.Lines().Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			segs := n.Lines()
			parts := make([]string, 0, segs.Len())
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
			}
			h := heading{
				start: lineOf(segs.At(0).Start),
				level: n.Level,
				text:  strings.Join(parts, " "),
			}
			h.end = lineOf(segs.At(segs.Len() - 1).Start)
			if !atxRe.Match(src[starts[h.start]:]) {
				h.setext = true
				h.end++ // underline
			}
			lay.headings[h.start] = h
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			if line, ok := firstLine(n, lineOf); ok {
				// "1. - x" starts two items on one line; the outer marker
				// comes first.
				if list, isList := n.Parent().(*ast.List); isList {
					if _, seen := lay.items[line]; !seen {
						lay.items[line] = list.IsOrdered()
					}
				}
			}

		case *east.Table:
			if n.Parent() == nil || n.Parent().Kind() != ast.KindDocument {
				return ast.WalkSkipChildren, nil
			}
			t := table{start: -1, aligns: n.Alignments}
			for row := n.FirstChild(); row != nil; row = row.NextSibling() {
				line, ok := firstLine(row, lineOf)
				if !ok {
					continue
				}
				if row.Kind() == east.KindTableHeader {
					t.header = line
					t.start = line
					t.end = line + 1
					continue
				}
				t.rows = append(t.rows, line)
				t.end = line
			}
			if t.start >= 0 {
				lay.tables[t.start] = t
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return lay
}

// firstLine returns the line of the first text segment below n.
func firstLine(n ast.Node, lineOf func(int) int) (int, bool) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return lineOf(n.Lines().At(0).Start), true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if line, ok := firstLine(c, lineOf); ok {
			return line, true
		}
	}
	return 0, false
}

// unifyMarker rewrites a list item marker to "-" or "N.". Lines that do not
// start with a marker, such as items inside block quotes, are returned as is.
func unifyMarker(line string, ordered bool) string {
	m := itemMarkerRe.FindStringSubmatchIndex(line)
	if m == nil {
		return line
	}
	marker := line[m[4]:m[5]]
	if ordered {
		marker = strings.TrimRight(marker, ".)") + "."
	} else {
		marker = "-"
	}
	return line[:m[4]] + marker + line[m[5]:]
}

// inline collapses runs of spaces after the indentation, unless Verbatim
// is set, and with IgnoreImages replaces images by their alt text. Code
// spans are copied unchanged.
func inline(line string, opts Options) string {
	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	var b strings.Builder
	b.WriteString(line[:indent])

	plain := func(s string) {
		if opts.IgnoreImages {
			s = imageRe.ReplaceAllString(s, "$1")
		}
		if !opts.Verbatim {
			s = spaceRunRe.ReplaceAllString(s, " ")
		}
		b.WriteString(s)
	}

	rest := line[indent:]
	for rest != "" {
		open := strings.IndexByte(rest, '`')
		if open < 0 {
			plain(rest)
			break
		}
		plain(rest[:open])
		n := backtickRun(rest[open:])
		end := closingRun(rest, open+n, n)
		if end < 0 {
			b.WriteString(rest[open : open+n])
			rest = rest[open+n:]
			continue
		}
		b.WriteString(rest[open : end+n])
		rest = rest[end+n:]
	}
	return b.String()
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

// closingRun finds the next run of exactly n backticks at or after from.
func closingRun(s string, from, n int) int {
	for i := from; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		run := backtickRun(s[i:])
		if run == n {
			return i
		}
		i += run
	}
	return -1
}

// joinBlocks drops leading and trailing blank lines and shortens long runs
// of blank lines outside code.
func joinBlocks(lines []string, code []bool) string {
	var (
		out   []string
		blank int
	)
	for i, l := range lines {
		if l == "" && !code[i] {
			blank++
			continue
		}
		if len(out) > 0 {
			for j := 0; j < min(blank, maxBlankLines); j++ {
				out = append(out, "")
			}
		}
		blank = 0
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
