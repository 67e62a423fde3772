package bookpdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lectern/lib/bookdoc"

	"github.com/go-resty/resty/v2"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent png
var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func TestRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(tinyPNG)
	}))
	defer server.Close()

	elements := []bookdoc.Element{
		{Kind: bookdoc.KindHeading, Level: 1, Text: "Chapter 3. Maps"},
		{Kind: bookdoc.KindParagraph, Text: "Maps are Go's built-in associative data type.", ChapterOpener: true},
		{Kind: bookdoc.KindImage, Src: server.URL + "/maps.png", Alt: "map internals"},
		{Kind: bookdoc.KindCaption, Text: "Figure 3-1. Bucket layout"},
		{Kind: bookdoc.KindList, Items: []string{"lookup", "insert", "delete"}, Ordered: true},
		{Kind: bookdoc.KindTable, Table: &bookdoc.Table{
			Caption: "Table 3-1",
			Rows: []bookdoc.TableRow{
				{Cells: []bookdoc.TableCell{
					{Content: "Op", Header: true, Colspan: 1, Rowspan: 1},
					{Content: "Cost", Header: true, Colspan: 1, Rowspan: 1},
				}},
				{Cells: []bookdoc.TableCell{
					{Content: "lookup", Colspan: 1, Rowspan: 1},
					{Content: "O(1)", Colspan: 1, Rowspan: 1},
				}},
			},
		}},
	}

	out, err := New(resty.New()).Render(context.Background(), "Chapter 3. Maps", elements)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "%PDF"), "output must be a pdf document")
}

func TestRenderLongContentPaginates(t *testing.T) {
	var elements []bookdoc.Element
	for i := 0; i < 120; i++ {
		elements = append(elements, bookdoc.Element{
			Kind: bookdoc.KindParagraph,
			Text: fmt.Sprintf("Paragraph %d with enough words to take at least one full line of output.", i),
		})
	}

	out, err := New(resty.New()).Render(context.Background(), "long", elements)
	require.NoError(t, err)
	// one "/Type /Page" per page plus the "/Type /Pages" tree node
	require.Greater(t, strings.Count(string(out), "/Type /Page"), 2)
}

func TestHeadingSize(t *testing.T) {
	require.Equal(t, 22.0, headingSize(1))
	require.Equal(t, 20.0, headingSize(2))
	require.Equal(t, 12.0, headingSize(6))
}

func newTestState() *renderState {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	return &renderState{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func TestHeadingWrapsAcrossPageBreak(t *testing.T) {
	state := newTestState()
	state.pdf.SetY(bottomY - 25)

	long := strings.Repeat("Understanding Concurrency Patterns ", 8)
	state.heading(bookdoc.Element{Kind: bookdoc.KindHeading, Level: 1, Text: long})

	// the wrapped lines must flow onto a new page instead of running past
	// the bottom margin
	require.Greater(t, state.pdf.PageCount(), 1)
	require.LessOrEqual(t, state.pdf.GetY(), bottomY)
	require.False(t, state.pdf.Err())
}

func TestLayoutTableRowspans(t *testing.T) {
	state := newTestState()

	layout := state.layoutTable(&bookdoc.Table{
		Rows: []bookdoc.TableRow{
			{Cells: []bookdoc.TableCell{
				{Content: "a", Colspan: 1, Rowspan: 2},
				{Content: "b", Colspan: 2, Rowspan: 1},
			}},
			{Cells: []bookdoc.TableCell{
				{Content: "c", Colspan: 1, Rowspan: 1},
				{Content: "d", Colspan: 1, Rowspan: 1},
			}},
		},
	})

	require.Equal(t, 3, layout.cols)
	require.Len(t, layout.placements, 4)

	// the rowspan on "a" pushes second-row cells right by one column
	require.Equal(t, 0, layout.placements[0].col)
	require.Equal(t, 1, layout.placements[1].col)
	require.Equal(t, 1, layout.placements[2].col)
	require.Equal(t, 2, layout.placements[3].col)

	require.Greater(t, layout.totalHeight(), 0.0)
}
