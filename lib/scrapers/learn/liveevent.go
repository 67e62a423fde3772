package learn

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoCaptionTracks = fmt.Errorf("could not find any caption tracks on this page")

// CaptionTracks returns the live-event page title and every caption-file
// URL referenced by its player markup, in DOM order.
func (c *Client) CaptionTracks(ctx context.Context, eventHref string) (string, []string, error) {
	ctx, span := tracer.Start(ctx, "client:CaptionTracks")
	defer span.End()
	span.SetAttributes(attribute.String("url", eventHref))

	doc, err := c.getDocument(ctx, eventHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch event page")
		return "", nil, err
	}
	title := pageTitle(doc)

	seen := map[string]bool{}
	var urls []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || seen[raw] {
			return
		}
		seen[raw] = true
		urls = append(urls, raw)
	}

	doc.Find("video track[kind=captions]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})
	doc.Find(`a[href$=".vtt"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("href", ""))
	})

	if len(urls) == 0 {
		span.SetStatus(codes.Error, ErrNoCaptionTracks.Error())
		return title, nil, ErrNoCaptionTracks
	}

	span.SetAttributes(attribute.Int("tracks", len(urls)))
	return title, urls, nil
}

// FetchCaptions performs the flow's single caption-file download.
func (c *Client) FetchCaptions(ctx context.Context, captionUrl string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:FetchCaptions")
	defer span.End()
	span.SetAttributes(attribute.String("url", captionUrl))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(captionUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch caption file")
		return nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("caption file fetch returned %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.Body(), nil
}
