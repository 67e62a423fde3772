package bookpdf

import (
	"lectern/lib/bookdoc"
)

const (
	cellPadding    = 1.5
	cellLineHeight = 4.5
)

// placement is a cell anchored to its grid position after rowspan/colspan
// resolution.
type placement struct {
	cell  bookdoc.TableCell
	row   int
	col   int
	lines []string
}

type tableLayout struct {
	cols       int
	colWidth   float64
	rowHeights []float64
	placements []placement
}

// layoutTable is pass 1: resolve the grid, wrap every cell's text at its
// final width and derive per-row heights. Rowspans reserve their columns in
// later rows so subsequent cells shift right.
func (s *renderState) layoutTable(table *bookdoc.Table) tableLayout {
	rows := len(table.Rows)

	cols := 0
	for _, row := range table.Rows {
		span := 0
		for _, cell := range row.Cells {
			span += cell.Colspan
		}
		if span > cols {
			cols = span
		}
	}
	if cols == 0 {
		return tableLayout{}
	}

	layout := tableLayout{
		cols:       cols,
		colWidth:   contentWidth / float64(cols),
		rowHeights: make([]float64, rows),
	}

	occupied := make([][]bool, rows)
	for i := range occupied {
		occupied[i] = make([]bool, cols)
	}

	for r, row := range table.Rows {
		col := 0
		for _, cell := range row.Cells {
			for col < cols && occupied[r][col] {
				col++
			}
			if col >= cols {
				break
			}

			for dr := 0; dr < cell.Rowspan && r+dr < rows; dr++ {
				for dc := 0; dc < cell.Colspan && col+dc < cols; dc++ {
					occupied[r+dr][col+dc] = true
				}
			}

			width := layout.colWidth*float64(cell.Colspan) - 2*cellPadding
			lines := s.pdf.SplitText(s.tr(cell.Content), width)
			layout.placements = append(layout.placements, placement{
				cell:  cell,
				row:   r,
				col:   col,
				lines: lines,
			})

			// a cell spanning n rows asks each for an equal share
			need := (float64(len(lines))*cellLineHeight + 2*cellPadding) / float64(cell.Rowspan)
			for dr := 0; dr < cell.Rowspan && r+dr < rows; dr++ {
				if need > layout.rowHeights[r+dr] {
					layout.rowHeights[r+dr] = need
				}
			}

			col += cell.Colspan
		}
	}

	return layout
}

func (l tableLayout) totalHeight() float64 {
	total := 0.0
	for _, h := range l.rowHeights {
		total += h
	}
	return total
}

// table is pass 2: draw borders and vertically centered text. A table that
// fits a page but not the remaining space gets a page break first.
func (s *renderState) table(table *bookdoc.Table) {
	layout := s.layoutTable(table)
	if len(layout.placements) == 0 {
		return
	}

	height := layout.totalHeight()
	if s.pdf.GetY()+height > bottomY && height <= bottomY-margin {
		s.pdf.AddPage()
		s.pdf.SetY(margin)
	}

	rowY := make([]float64, len(layout.rowHeights)+1)
	y := s.pdf.GetY()
	for i, h := range layout.rowHeights {
		rowY[i] = y
		y += h
	}
	rowY[len(layout.rowHeights)] = y

	for _, p := range layout.placements {
		x := margin + float64(p.col)*layout.colWidth
		w := layout.colWidth * float64(p.cell.Colspan)

		endRow := p.row + p.cell.Rowspan
		if endRow > len(layout.rowHeights) {
			endRow = len(layout.rowHeights)
		}
		h := rowY[endRow] - rowY[p.row]

		if p.cell.Header {
			s.pdf.SetFillColor(235, 235, 235)
			s.pdf.Rect(x, rowY[p.row], w, h, "FD")
			s.pdf.SetFont("Helvetica", "B", 9)
		} else {
			s.pdf.Rect(x, rowY[p.row], w, h, "D")
			s.pdf.SetFont("Helvetica", "", 9)
		}

		textHeight := float64(len(p.lines)) * cellLineHeight
		textY := rowY[p.row] + (h-textHeight)/2
		for _, line := range p.lines {
			s.pdf.SetXY(x+cellPadding, textY)
			s.pdf.CellFormat(w-2*cellPadding, cellLineHeight, line, "", 0, "L", false, 0, "")
			textY += cellLineHeight
		}
	}

	s.pdf.SetY(rowY[len(layout.rowHeights)])
	s.pdf.Ln(2)

	if table.Caption != "" {
		s.caption(table.Caption)
	}
}
