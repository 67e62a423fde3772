package learn

import (
	"context"
	"fmt"

	"lectern/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrTocNotFound = fmt.Errorf("could not find a table of contents on this page")

// CourseTOC extracts the ordered video list of a course page.
func (c *Client) CourseTOC(ctx context.Context, courseHref string) ([]htmlutil.Anchor, error) {
	ctx, span := tracer.Start(ctx, "client:CourseTOC")
	defer span.End()
	span.SetAttributes(attribute.String("url", courseHref))

	doc, err := c.getDocument(ctx, courseHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course page")
		return nil, err
	}

	anchors := htmlutil.GetAnchors(ctx, doc.Find("ol.video-toc li a"))
	if len(anchors) == 0 {
		span.SetStatus(codes.Error, ErrTocNotFound.Error())
		return nil, ErrTocNotFound
	}
	return anchors, nil
}

// BookTOC extracts the ordered chapter list of an e-book detail page.
func (c *Client) BookTOC(ctx context.Context, bookHref string) ([]htmlutil.Anchor, error) {
	ctx, span := tracer.Start(ctx, "client:BookTOC")
	defer span.End()
	span.SetAttributes(attribute.String("url", bookHref))

	doc, err := c.getDocument(ctx, bookHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch book page")
		return nil, err
	}

	anchors := htmlutil.GetAnchors(ctx, doc.Find("ol.book-toc li a"))
	if len(anchors) == 0 {
		span.SetStatus(codes.Error, ErrTocNotFound.Error())
		return nil, ErrTocNotFound
	}
	return anchors, nil
}
