package learn

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"lectern/lib/htmlutil"
	"lectern/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	transcriptToggleSelector = "button.transcript-toggle"
	transcriptBodySelector   = "div.transcript-body"
	transcriptLineSelector   = "div.transcript-body button.transcript-line"
	loadingIndicatorSelector = "div.loading-spinner"
)

// TranscriptLine is one timestamped line of a video transcript.
type TranscriptLine struct {
	Time string
	Text string
}

// expandedHref rewrites an item link so the server renders the transcript
// panel open, the HTTP equivalent of clicking the toggle button.
func expandedHref(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	values := parsed.Query()
	values.Set("transcript", "open")
	parsed.RawQuery = values.Encode()
	return parsed.String()
}

// Transcript extracts the transcript of a single video page. When the panel
// is collapsed it requests the expanded variant and polls until the body
// appears and the loading indicator clears.
func (c *Client) Transcript(ctx context.Context, itemHref string) (string, []TranscriptLine, error) {
	ctx, span := tracer.Start(ctx, "client:Transcript")
	defer span.End()
	span.SetAttributes(attribute.String("url", itemHref))

	doc, err := c.getDocument(ctx, itemHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch video page")
		return "", nil, err
	}
	title := pageTitle(doc)

	toggle := doc.Find(transcriptToggleSelector)
	collapsed := toggle.AttrOr("aria-expanded", "false") != "true"

	contentHref := itemHref
	if collapsed {
		contentHref = expandedHref(itemHref)
		span.AddEvent("expanding collapsed transcript panel")
	}

	fetch := func(ctx context.Context) (*goquery.Document, error) {
		return c.getDocument(ctx, contentHref)
	}

	sel, err := htmlutil.WaitForSelector(ctx, fetch, transcriptBodySelector, c.waitOpts)
	if err != nil {
		return "", nil, err
	}
	if sel == nil {
		// distinguish the two failure modes for diagnostics
		if collapsed {
			err = fmt.Errorf("transcript body did not appear after expanding the panel: %s", itemHref)
		} else {
			err = fmt.Errorf("transcript body not found despite an already-expanded panel: %s", itemHref)
		}
		span.SetStatus(codes.Error, err.Error())
		return title, nil, err
	}

	gone, err := htmlutil.WaitForGone(ctx, fetch, loadingIndicatorSelector, c.waitOpts)
	if err != nil {
		return title, nil, err
	}
	if !gone {
		err = fmt.Errorf("transcript kept loading past the deadline: %s", itemHref)
		span.SetStatus(codes.Error, err.Error())
		return title, nil, err
	}

	// refetch once more so lines and spinner state come from the same snapshot
	doc, err = fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch transcript content")
		return title, nil, err
	}

	lines := extractTranscriptLines(doc)
	if len(lines) == 0 {
		err = fmt.Errorf("transcript body contains no lines: %s", itemHref)
		span.SetStatus(codes.Error, err.Error())
		return title, nil, err
	}

	span.SetAttributes(attribute.Int("lines", len(lines)))
	return title, lines, nil
}

func extractTranscriptLines(doc *goquery.Document) []TranscriptLine {
	var lines []TranscriptLine
	doc.Find(transcriptLineSelector).Each(func(_ int, s *goquery.Selection) {
		line := TranscriptLine{
			Time: strings.TrimSpace(s.Find("span.transcript-time").Text()),
			Text: textutil.Clean(s.Find("span.transcript-text").Text()),
		}
		if line.Text == "" {
			return
		}
		lines = append(lines, line)
	})
	return lines
}

func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("h1.content-title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return textutil.Clean(title)
}
