package learn

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrChapterNotFound = fmt.Errorf("could not find chapter content on this page")

// chapterRootSelectors are tried in order; the site wraps chapter bodies
// differently between its reader versions.
var chapterRootSelectors = []string{
	"div#book-content",
	"div.chapter-content",
	"section.chapter",
}

// ChapterHTML fetches a chapter page and returns its title plus the raw
// HTML of the content root, ready for block extraction.
func (c *Client) ChapterHTML(ctx context.Context, chapterHref string) (string, string, error) {
	ctx, span := tracer.Start(ctx, "client:ChapterHTML")
	defer span.End()
	span.SetAttributes(attribute.String("url", chapterHref))

	doc, err := c.getDocument(ctx, chapterHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch chapter page")
		return "", "", err
	}
	title := pageTitle(doc)

	for _, selector := range chapterRootSelectors {
		sel := doc.Find(selector)
		if len(sel.Nodes) == 0 {
			continue
		}
		contents, err := sel.First().Html()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to serialize chapter content")
			return title, "", err
		}
		span.SetAttributes(attribute.String("root_selector", selector))
		return title, contents, nil
	}

	span.SetStatus(codes.Error, ErrChapterNotFound.Error())
	return title, "", ErrChapterNotFound
}
