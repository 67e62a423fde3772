package bookdoc

import (
	"bytes"
	"strconv"

	"lectern/lib/textutil"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func extractTable(n *html.Node) *Table {
	table := &Table{}

	var visit func(n *html.Node, inHeader bool)
	visit = func(n *html.Node, inHeader bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.DataAtom {
			case atom.Caption:
				table.Caption = cleanCellText(c)
			case atom.Thead:
				visit(c, true)
			case atom.Tbody, atom.Tfoot:
				visit(c, inHeader)
			case atom.Tr:
				row := extractRow(c, inHeader)
				if len(row.Cells) > 0 {
					table.Rows = append(table.Rows, row)
				}
			}
		}
	}
	visit(n, false)

	return table
}

func extractRow(tr *html.Node, inHeader bool) TableRow {
	row := TableRow{}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom != atom.Th && c.DataAtom != atom.Td {
			continue
		}
		row.Cells = append(row.Cells, TableCell{
			Content: cleanCellText(c),
			Header:  inHeader || c.DataAtom == atom.Th,
			Colspan: spanAttr(c, "colspan"),
			Rowspan: spanAttr(c, "rowspan"),
		})
	}
	return row
}

// spanAttr reads colspan/rowspan, defaulting to 1 when absent or invalid.
func spanAttr(n *html.Node, key string) int {
	v, err := strconv.Atoi(attr(n, key))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

func cleanCellText(n *html.Node) string {
	var buffer bytes.Buffer
	textWithout(n, &buffer)
	return textutil.CleanTable(textutil.StripFootnoteRefs(buffer.String()))
}
