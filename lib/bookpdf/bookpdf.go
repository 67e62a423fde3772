// Package bookpdf lays extracted chapter blocks out on paginated A4 output.
package bookpdf

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"lectern/lib/bookdoc"

	"github.com/go-resty/resty/v2"
	"github.com/jung-kurt/gofpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("lectern.lib.bookpdf")

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	contentWidth = pageWidth - 2*margin
	bottomY      = pageHeight - margin

	bodyLineHeight = 5.5
	maxImageHeight = 120.0
)

// Renderer draws block sequences into PDFs. The resty client is used to
// fetch images referenced by chapters.
type Renderer struct {
	http *resty.Client
}

func New(httpClient *resty.Client) Renderer {
	return Renderer{http: httpClient}
}

type renderState struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// ensureSpace starts a new page when the next write would run past the
// bottom margin.
func (s *renderState) ensureSpace(need float64) {
	if s.pdf.GetY()+need > bottomY {
		s.pdf.AddPage()
		s.pdf.SetY(margin)
	}
}

// Render lays the blocks out in order. A caption element directly following
// an image is drawn beneath the image and skipped by the main loop.
func (r Renderer) Render(ctx context.Context, title string, elements []bookdoc.Element) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("title", title),
		attribute.Int("elements", len(elements)),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	state := &renderState{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}

	for i := 0; i < len(elements); i++ {
		el := elements[i]
		switch el.Kind {
		case bookdoc.KindHeading:
			state.heading(el)
		case bookdoc.KindParagraph:
			state.paragraph(el)
		case bookdoc.KindCaption:
			state.caption(el.Text)
		case bookdoc.KindList:
			state.list(el)
		case bookdoc.KindImage:
			r.image(ctx, state, el)
			// a caption right after its image belongs beneath it
			if i+1 < len(elements) && elements[i+1].Kind == bookdoc.KindCaption {
				state.caption(elements[i+1].Text)
				i++
			}
		case bookdoc.KindTable:
			state.table(el.Table)
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}

	out := bytes.NewBuffer(nil)
	err := pdf.Output(out)
	if err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// headingSize scales down with depth: h1 is 22pt, each level two points
// smaller, floored at 12pt.
func headingSize(level int) float64 {
	size := 22.0 - float64(level-1)*2
	if size < 12 {
		size = 12
	}
	return size
}

func (s *renderState) heading(el bookdoc.Element) {
	size := headingSize(el.Level)
	lineHeight := size * 0.5

	s.pdf.SetFont("Helvetica", "B", size)
	s.pdf.SetTextColor(0, 0, 0)
	s.writeWrapped(contentWidth, lineHeight, el.Text, margin)
	s.pdf.Ln(lineHeight * 0.5)
}

func (s *renderState) paragraph(el bookdoc.Element) {
	size := 11.0
	if el.ChapterOpener {
		size = 13
	}

	s.pdf.SetFont("Helvetica", "", size)
	s.pdf.SetTextColor(0, 0, 0)
	s.writeWrapped(contentWidth, bodyLineHeight, el.Text, margin)
	s.pdf.Ln(bodyLineHeight * 0.6)
}

func (s *renderState) caption(text string) {
	s.pdf.SetFont("Helvetica", "I", 9)
	s.pdf.SetTextColor(110, 110, 110)
	s.writeWrapped(contentWidth, 4.5, text, margin)
	s.pdf.SetTextColor(0, 0, 0)
	s.pdf.Ln(3)
}

func (s *renderState) list(el bookdoc.Element) {
	const indent = 5.0

	s.pdf.SetFont("Helvetica", "", 11)
	s.pdf.SetTextColor(0, 0, 0)
	for i, item := range el.Items {
		marker := "- "
		if el.Ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		s.writeWrapped(contentWidth-indent, bodyLineHeight, marker+item, margin+indent)
	}
	s.pdf.Ln(bodyLineHeight * 0.6)
}

// writeWrapped emits text line by line so the page-break rule applies to
// every single line, not just the start of a block.
func (s *renderState) writeWrapped(width, lineHeight float64, text string, x float64) {
	lines := s.pdf.SplitText(s.tr(text), width)
	for _, line := range lines {
		s.ensureSpace(lineHeight)
		s.pdf.SetX(x)
		s.pdf.CellFormat(width, lineHeight, line, "", 1, "L", false, 0, "")
	}
}

func imageType(src string) string {
	switch strings.ToLower(path.Ext(src)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return "PNG"
	}
}

// image fetches, scales and draws one image. Failures degrade to an inline
// placeholder note, a missing figure should not abort a whole chapter.
func (r Renderer) image(ctx context.Context, s *renderState, el bookdoc.Element) {
	res, err := r.http.R().
		SetContext(ctx).
		Get(el.Src)
	if err != nil || res.IsError() {
		s.caption(fmt.Sprintf("[image unavailable: %s]", el.Alt))
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType(el.Src), ReadDpi: true}
	info := s.pdf.RegisterImageOptionsReader(el.Src, opts, bytes.NewReader(res.Body()))
	if s.pdf.Err() {
		// bad image data, reset the error so the rest still renders
		s.pdf.SetError(nil)
		s.caption(fmt.Sprintf("[image unavailable: %s]", el.Alt))
		return
	}

	w, h := info.Extent()
	if w <= 0 || h <= 0 {
		s.caption(fmt.Sprintf("[image unavailable: %s]", el.Alt))
		return
	}

	scale := contentWidth / w
	if h*scale > maxImageHeight {
		scale = maxImageHeight / h
	}
	drawW, drawH := w*scale, h*scale

	s.ensureSpace(drawH)
	x := margin + (contentWidth-drawW)/2
	s.pdf.ImageOptions(el.Src, x, s.pdf.GetY(), drawW, drawH, false, opts, 0, "")
	s.pdf.SetY(s.pdf.GetY() + drawH + 2)
}
