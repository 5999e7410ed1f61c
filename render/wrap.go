package render

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var (
	fenceRe      = regexp.MustCompile("^\\s*(`{3,}|~{3,})")
	listMarkerRe = regexp.MustCompile(`^(\s*)([-+*]|\d{1,9}[.)])\s+`)
	// blockStartRe matches words that would change the block type if a
	// wrapped line began with them.
	blockStartRe = regexp.MustCompile(`^([-+*>#|=]|\d{1,9}[.)]$|` + "```" + `|~~~)`)
)

// Wrap reflows paragraph and list item lines so that no line is wider than
// width display columns. Headings, tables, block quotes, code and single
// words longer than width are left as they are.
func Wrap(markdown string, width int) string {
	if width <= 0 {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	out := make([]string, 0, len(lines))
	fence := ""
	for _, line := range lines {
		if fence != "" {
			out = append(out, line)
			if strings.HasPrefix(strings.TrimSpace(line), fence) {
				fence = ""
			}
			continue
		}
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			fence = m[1]
			out = append(out, line)
			continue
		}
		if !wrappable(line) || runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrappable(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	// Indented code, unless it is a nested list item.
	if (strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")) && !listMarkerRe.MatchString(line) {
		return false
	}
	switch trimmed[0] {
	case '#', '|', '>', '<':
		return false
	}
	return true
}

// wrapLine breaks one line at spaces. Continuation lines are indented to the
// text column of a list item.
func wrapLine(line string, width int) []string {
	prefix := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if m := listMarkerRe.FindString(line); m != "" {
		prefix = m
	}
	indent := strings.Repeat(" ", runewidth.StringWidth(prefix))

	var (
		lines []string
		cur   strings.Builder
		curW  int
	)
	cur.WriteString(prefix)
	curW = runewidth.StringWidth(prefix)
	empty := true

	for _, word := range strings.Fields(line[len(prefix):]) {
		w := runewidth.StringWidth(word)
		if !empty && curW+1+w > width && !blockStartRe.MatchString(word) {
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(indent)
			curW = len(indent)
			empty = true
		}
		if !empty {
			cur.WriteByte(' ')
			curW++
		}
		cur.WriteString(word)
		curW += w
		empty = false
	}
	return append(lines, cur.String())
}
