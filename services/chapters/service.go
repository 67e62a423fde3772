// Package chapters runs the e-book chapter batch: walk the book's table of
// contents, extract each chapter's content blocks, render them to a PDF and
// checkpoint the cursor after every item.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lectern/lib/batchstore"
	"lectern/lib/batchutil"
	"lectern/lib/bookdoc"
	"lectern/lib/htmlutil"
	"lectern/lib/manifest"
	"lectern/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lectern.services.chapters")

var ErrEmptyToc = fmt.Errorf("the book table of contents has no chapters")

// Client is the slice of the site client this service needs.
type Client interface {
	BookTOC(ctx context.Context, bookHref string) ([]htmlutil.Anchor, error)
	ChapterHTML(ctx context.Context, chapterHref string) (string, string, error)
}

// Renderer turns extracted chapter blocks into a PDF document.
type Renderer interface {
	Render(ctx context.Context, title string, elements []bookdoc.Element) ([]byte, error)
}

type Options struct {
	OutputDir string
	Delay     time.Duration
}

type Service struct {
	client   Client
	renderer Renderer
	store    batchstore.Store
	ledger   manifest.Manifest
	options  Options
}

func NewService(client Client, renderer Renderer, store batchstore.Store, ledger manifest.Manifest, options Options) Service {
	return Service{
		client:   client,
		renderer: renderer,
		store:    store,
		ledger:   ledger,
		options:  options,
	}
}

type Summary struct {
	Processed int
	Skipped   int
}

// Start fetches the book's table of contents, persists a fresh cursor and
// runs the batch from the beginning.
func (s Service) Start(ctx context.Context, bookHref string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Start")
	defer span.End()
	span.SetAttributes(attribute.String("book", bookHref))

	anchors, err := s.client.BookTOC(ctx, bookHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch book toc")
		return Summary{}, err
	}
	if len(anchors) == 0 {
		span.SetStatus(codes.Error, ErrEmptyToc.Error())
		return Summary{}, ErrEmptyToc
	}

	items := make([]batchstore.TOCItem, len(anchors))
	for i, a := range anchors {
		items[i] = batchstore.TOCItem{Title: a.Name, Href: a.Href}
	}

	state := batchstore.BatchState{Items: items, CurrentIndex: 0}
	err = s.store.Save(ctx, batchstore.KindChapters, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist batch state")
		return Summary{}, err
	}

	slog.InfoContext(ctx, "starting chapter batch", "chapters", len(items))
	return s.run(ctx, state)
}

// Resume picks up a persisted cursor. The bool is false when there is
// nothing to resume.
func (s Service) Resume(ctx context.Context) (Summary, bool, error) {
	ctx, span := tracer.Start(ctx, "Resume")
	defer span.End()

	state, err := s.store.Load(ctx, batchstore.KindChapters)
	if err == batchstore.ErrNoBatch {
		return Summary{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load batch state")
		return Summary{}, false, err
	}

	slog.InfoContext(
		ctx, "resuming chapter batch",
		"at", state.CurrentIndex,
		"chapters", len(state.Items),
	)
	summary, err := s.run(ctx, state)
	return summary, true, err
}

func (s Service) run(ctx context.Context, state batchstore.BatchState) (Summary, error) {
	ctx, span := tracer.Start(ctx, "run")
	defer span.End()

	var summary Summary
	for !state.Done() {
		item := state.Current()

		err := s.processItem(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			var fatal *batchutil.Fatal
			if errors.As(err, &fatal) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "batch aborted")
				if clearErr := s.store.Clear(ctx, batchstore.KindChapters); clearErr != nil {
					span.RecordError(clearErr)
				}
				return summary, fatal.Err
			}
			slog.WarnContext(
				ctx, "skipping chapter",
				"title", item.Title,
				"href", item.Href,
				"error", err,
			)
			summary.Skipped++
		} else {
			summary.Processed++
		}

		state.CurrentIndex++
		err = s.store.Save(ctx, batchstore.KindChapters, state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to checkpoint cursor")
			return summary, fmt.Errorf("checkpoint cursor: %w", err)
		}

		if !state.Done() {
			err = batchutil.Sleep(ctx, s.options.Delay)
			if err != nil {
				return summary, err
			}
		}
	}

	err := s.store.Clear(ctx, batchstore.KindChapters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clear finished batch")
		return summary, err
	}

	span.SetAttributes(
		attribute.Int("processed", summary.Processed),
		attribute.Int("skipped", summary.Skipped),
	)
	slog.InfoContext(
		ctx, "chapter batch finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func (s Service) processItem(ctx context.Context, item batchstore.TOCItem) error {
	title, contents, err := s.client.ChapterHTML(ctx, item.Href)
	if err != nil {
		return err
	}
	if title == "" {
		title = item.Title
	}

	elements, err := bookdoc.FromHTML(contents)
	if err != nil {
		return fmt.Errorf("extract chapter: %w", err)
	}
	if len(elements) == 0 {
		return fmt.Errorf("chapter has no extractable content: %s", item.Href)
	}

	rendered, err := s.renderer.Render(ctx, title, elements)
	if err != nil {
		return fmt.Errorf("render chapter: %w", err)
	}

	path := filepath.Join(s.options.OutputDir, textutil.SanitizeFilename(title)+".pdf")
	err = os.WriteFile(path, rendered, 0o644)
	if err != nil {
		return &batchutil.Fatal{Err: fmt.Errorf("write %s: %w", path, err)}
	}

	err = s.ledger.Record(ctx, manifest.Entry{
		Kind:      string(batchstore.KindChapters),
		Title:     title,
		Path:      path,
		ItemCount: len(elements),
	})
	if err != nil {
		return &batchutil.Fatal{Err: fmt.Errorf("record output: %w", err)}
	}

	slog.InfoContext(ctx, "saved chapter", "title", title, "blocks", len(elements))
	return nil
}
