package normalize

import (
	"strings"

	"github.com/mattn/go-runewidth"
	east "github.com/yuin/goldmark/extension/ast"
)

// formatTable re-pads a pipe table so that every column has the width of
// its widest cell. Body rows get as many cells as the header; surplus cells
// are dropped because no renderer would show them.
func formatTable(lines []string, t table, opts Options) []string {
	cols := len(t.aligns)
	rows := make([][]string, 0, len(t.rows)+1)
	for _, n := range append([]int{t.header}, t.rows...) {
		cells := splitRow(lines[n])
		row := make([]string, cols)
		for i := 0; i < cols && i < len(cells); i++ {
			row[i] = inline(cells[i], opts)
		}
		rows = append(rows, row)
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = 3
	}
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	out := make([]string, 0, len(rows)+1)
	out = append(out, joinRow(rows[0], widths))
	delim := make([]string, cols)
	for i, a := range t.aligns {
		delim[i] = delimiterCell(a, widths[i])
	}
	out = append(out, "| "+strings.Join(delim, " | ")+" |")
	for _, row := range rows[1:] {
		out = append(out, joinRow(row, widths))
	}
	return out
}

func joinRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-runewidth.StringWidth(c))
	}
	return "| " + strings.Join(padded, " | ") + " |"
}

func delimiterCell(a east.Alignment, width int) string {
	switch a {
	case east.AlignLeft:
		return ":" + strings.Repeat("-", width-1)
	case east.AlignRight:
		return strings.Repeat("-", width-1) + ":"
	case east.AlignCenter:
		return ":" + strings.Repeat("-", width-2) + ":"
	default:
		return strings.Repeat("-", width)
	}
}

// splitRow splits a table row on unescaped pipes and trims each cell.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}

	var (
		cells []string
		cur   strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			cur.WriteByte(c)
			cur.WriteByte(line[i+1])
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return append(cells, strings.TrimSpace(cur.String()))
}
