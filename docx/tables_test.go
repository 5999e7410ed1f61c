package docx

import (
	"encoding/xml"
	"testing"
)

var vMergeName = xml.Name{Local: "vMerge"}

func cell(props, text string) string {
	if props != "" {
		props = "<w:tcPr>" + props + "</w:tcPr>"
	}
	return "<w:tc>" + props + para(text) + "</w:tc>"
}

func row(cells ...string) string {
	out := "<w:tr>"
	for _, c := range cells {
		out += c
	}
	return out + "</w:tr>"
}

func TestHTML_Tables(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "first row is header",
			body: "<w:tbl>" +
				row(cell("", "Name"), cell("", "Age")) +
				row(cell("", "Ann"), cell("", "41")) +
				"</w:tbl>",
			want: "<table><tr><th>Name</th><th>Age</th></tr><tr><td>Ann</td><td>41</td></tr></table>",
		},
		{
			name: "marked header rows",
			body: "<w:tbl>" +
				`<w:tr><w:trPr><w:tblHeader/></w:trPr>` + cell("", "H1") + cell("", "H2") + "</w:tr>" +
				`<w:tr><w:trPr><w:tblHeader/></w:trPr>` + cell("", "S1") + cell("", "S2") + "</w:tr>" +
				row(cell("", "a"), cell("", "b")) +
				"</w:tbl>",
			want: "<table><tr><th>H1</th><th>H2</th></tr><tr><th>S1</th><th>S2</th></tr><tr><td>a</td><td>b</td></tr></table>",
		},
		{
			name: "column span",
			body: "<w:tbl>" +
				row(cell(`<w:gridSpan w:val="2"/>`, "Wide"), cell("", "C")) +
				row(cell("", "a"), cell("", "b"), cell("", "c")) +
				"</w:tbl>",
			want: `<table><tr><th colspan="2">Wide</th><th>C</th></tr><tr><td>a</td><td>b</td><td>c</td></tr></table>`,
		},
		{
			name: "vertical merge",
			body: "<w:tbl>" +
				row(cell("", "K"), cell("", "V")) +
				row(cell(`<w:vMerge w:val="restart"/>`, "Group"), cell("", "1")) +
				row(cell(`<w:vMerge/>`, ""), cell("", "2")) +
				row(cell("", "Other"), cell("", "3")) +
				"</w:tbl>",
			want: `<table><tr><th>K</th><th>V</th></tr>` +
				`<tr><td rowspan="2">Group</td><td>1</td></tr>` +
				`<tr><td>2</td></tr>` +
				`<tr><td>Other</td><td>3</td></tr></table>`,
		},
		{
			name: "multi-paragraph cell",
			body: "<w:tbl>" +
				row("<w:tc>"+para("one")+para("two")+"</w:tc>") +
				"</w:tbl>",
			want: "<table><tr><th>one<br>two</th></tr></table>",
		},
		{
			name: "list closed before table",
			body: `<w:p><w:pPr><w:pStyle w:val="ListBullet"/></w:pPr><w:r><w:t>item</w:t></w:r></w:p>` +
				"<w:tbl>" + row(cell("", "x")) + "</w:tbl>",
			want: "<ul><li>item</li></ul><table><tr><th>x</th></tr></table>",
		},
		{
			name: "empty table",
			body: "<w:tbl><w:tblPr/></w:tbl>" + para("after"),
			want: "<p>after</p>",
		},
	}

	styles := map[string]string{"word/styles.xml": `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/></w:style>
</w:styles>`}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bodyHTML(t, tt.body, styles); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLayoutTable_RowSpan(t *testing.T) {
	tbl := &tableXML{Rows: []tableRowXML{
		{Cells: []tableCellXML{{Properties: cellPropsXML{VMerge: vMergeXML{XMLName: vMergeName, Val: "restart"}}}, {}}},
		{Cells: []tableCellXML{{Properties: cellPropsXML{VMerge: vMergeXML{XMLName: vMergeName}}}, {}}},
		{Cells: []tableCellXML{{Properties: cellPropsXML{VMerge: vMergeXML{XMLName: vMergeName}}}, {}}},
	}}
	rows := layoutTable(tbl)
	if got := rows[0][0].rowSpan; got != 3 {
		t.Errorf("rowSpan = %d, want 3", got)
	}
	if !rows[1][0].merged || !rows[2][0].merged {
		t.Error("continuation cells should be marked merged")
	}
	if got := rows[1][1].col; got != 1 {
		t.Errorf("col = %d, want 1", got)
	}
}
