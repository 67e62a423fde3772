package htmlutil

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DocumentFetcher produces a fresh snapshot of the page under observation.
// The host site renders everything server-side on reload, so "wait for an
// element" means refetching until the selector matches.
type DocumentFetcher func(ctx context.Context) (*goquery.Document, error)

type WaitOptions struct {
	// Interval between polls, defaults to 50ms.
	Interval time.Duration
	// Timeout for the whole wait, defaults to 5s.
	Timeout time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Interval <= 0 {
		o.Interval = time.Millisecond * 50
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Second * 5
	}
	return o
}

// WaitForSelector polls until the selector matches at least one node or the
// timeout elapses. A timeout with no match resolves to a nil selection, not
// an error; the only error returned is context cancellation. Fetch failures
// are recorded and polling continues, a flaky response should not end the
// wait early.
func WaitForSelector(ctx context.Context, fetch DocumentFetcher, selector string, opts WaitOptions) (*goquery.Selection, error) {
	ctx, span := tracer.Start(ctx, "WaitForSelector")
	defer span.End()
	span.SetAttributes(attribute.String("selector", selector))

	opts = opts.withDefaults()
	deadline := time.Now().Add(opts.Timeout)

	for {
		doc, err := fetch(ctx)
		if err != nil {
			span.RecordError(err)
		} else {
			sel := doc.Find(selector)
			if len(sel.Nodes) > 0 {
				return sel, nil
			}
		}

		if time.Now().After(deadline) {
			span.SetStatus(codes.Ok, "timed out with no match")
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Interval):
		}
	}
}

// WaitForGone polls until the selector no longer matches anything, reporting
// whether it disappeared before the timeout. Used for loading indicators
// that linger after the target container already exists.
func WaitForGone(ctx context.Context, fetch DocumentFetcher, selector string, opts WaitOptions) (bool, error) {
	ctx, span := tracer.Start(ctx, "WaitForGone")
	defer span.End()
	span.SetAttributes(attribute.String("selector", selector))

	opts = opts.withDefaults()
	deadline := time.Now().Add(opts.Timeout)

	for {
		doc, err := fetch(ctx)
		if err != nil {
			span.RecordError(err)
		} else if len(doc.Find(selector).Nodes) == 0 {
			return true, nil
		}

		if time.Now().After(deadline) {
			span.SetStatus(codes.Ok, "timed out, selector still present")
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(opts.Interval):
		}
	}
}
