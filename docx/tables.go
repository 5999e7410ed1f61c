package docx

import (
	"strconv"
)

// tableCell is a cell placed on the table grid.
type tableCell struct {
	xml     *tableCellXML
	col     int
	colSpan int
	rowSpan int
	// merged marks a vertical-merge continuation, which is not emitted.
	merged bool
}

// layoutTable places cells on the grid and computes row spans from
// vertical merges. A merge starts at a cell with vMerge="restart" and
// continues through cells below it with a bare vMerge.
func layoutTable(tbl *tableXML) [][]tableCell {
	rows := make([][]tableCell, len(tbl.Rows))
	for r, row := range tbl.Rows {
		col := 0
		for i := range row.Cells {
			c := &tbl.Rows[r].Cells[i]
			span := 1
			if n, err := strconv.Atoi(c.Properties.GridSpan.Val); err == nil && n > 1 {
				span = n
			}
			vm := c.Properties.VMerge
			rows[r] = append(rows[r], tableCell{
				xml:     c,
				col:     col,
				colSpan: span,
				rowSpan: 1,
				merged:  vm.XMLName.Local != "" && vm.Val != "restart",
			})
			col += span
		}
	}

	for r := range rows {
		for i := range rows[r] {
			cell := &rows[r][i]
			if cell.merged {
				continue
			}
			for below := r + 1; below < len(rows); below++ {
				next := cellAt(rows[below], cell.col)
				if next == nil || !next.merged {
					break
				}
				cell.rowSpan++
			}
		}
	}
	return rows
}

func cellAt(row []tableCell, col int) *tableCell {
	for i := range row {
		if row[i].col == col {
			return &row[i]
		}
	}
	return nil
}

// writeTable emits the table as HTML. Rows marked as header rows become <th>
// rows; without any, the first row is the header.
func (w *htmlWriter) writeTable(tbl *tableXML) {
	rows := layoutTable(tbl)
	if len(rows) == 0 {
		return
	}

	hasHeader := false
	for _, row := range tbl.Rows {
		if row.Properties.Header.On() {
			hasHeader = true
			break
		}
	}

	w.sb.WriteString("<table>")
	for r, row := range rows {
		header := r == 0
		if hasHeader {
			header = tbl.Rows[r].Properties.Header.On()
		}
		tag := "td"
		if header {
			tag = "th"
		}

		w.sb.WriteString("<tr>")
		for _, cell := range row {
			if cell.merged {
				continue
			}
			w.sb.WriteString("<" + tag)
			if cell.colSpan > 1 {
				w.sb.WriteString(` colspan="` + strconv.Itoa(cell.colSpan) + `"`)
			}
			if cell.rowSpan > 1 {
				w.sb.WriteString(` rowspan="` + strconv.Itoa(cell.rowSpan) + `"`)
			}
			w.sb.WriteString(">")
			w.writeCell(cell.xml.Blocks)
			w.sb.WriteString("</" + tag + ">")
		}
		w.sb.WriteString("</tr>")
	}
	w.sb.WriteString("</table>")
}

// writeCell writes cell content inline: paragraphs are separated by <br>,
// nested tables are kept.
func (w *htmlWriter) writeCell(blocks []blockXML) {
	first := true
	for _, b := range blocks {
		switch {
		case b.Table != nil:
			w.writeTable(b.Table)
			first = true
		case b.Paragraph != nil:
			content := w.inline(b.Paragraph, true)
			if content == "" {
				continue
			}
			if !first {
				w.sb.WriteString("<br>")
			}
			w.sb.WriteString(content)
			first = false
		}
	}
}
