// Package transcripts runs the video transcript batch: walk a course's
// table of contents item by item, save each transcript as a text file and
// checkpoint the cursor after every item so an interrupted run resumes
// where it left off.
package transcripts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lectern/lib/batchstore"
	"lectern/lib/batchutil"
	"lectern/lib/htmlutil"
	"lectern/lib/manifest"
	"lectern/lib/scrapers/learn"
	"lectern/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lectern.services.transcripts")

var ErrEmptyToc = fmt.Errorf("the course table of contents has no items")

// Client is the slice of the site client this service needs.
type Client interface {
	CourseTOC(ctx context.Context, courseHref string) ([]htmlutil.Anchor, error)
	Transcript(ctx context.Context, itemHref string) (string, []learn.TranscriptLine, error)
}

type Options struct {
	OutputDir string
	// Delay is slept between items to stay polite.
	Delay time.Duration
}

type Service struct {
	client  Client
	store   batchstore.Store
	ledger  manifest.Manifest
	options Options
}

func NewService(client Client, store batchstore.Store, ledger manifest.Manifest, options Options) Service {
	return Service{
		client:  client,
		store:   store,
		ledger:  ledger,
		options: options,
	}
}

// Summary reports how a finished batch went. Skipped items produced no
// output file but did not stop the batch.
type Summary struct {
	Processed int
	Skipped   int
}

// Start fetches the course's table of contents, persists a fresh cursor
// and runs the batch from the beginning.
func (s Service) Start(ctx context.Context, courseHref string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Start")
	defer span.End()
	span.SetAttributes(attribute.String("course", courseHref))

	anchors, err := s.client.CourseTOC(ctx, courseHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course toc")
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
	err = s.store.Save(ctx, batchstore.KindTranscripts, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist batch state")
		return Summary{}, err
	}

	slog.InfoContext(ctx, "starting transcript batch", "items", len(items))
	return s.run(ctx, state)
}

// Resume picks up a persisted cursor. The bool is false when there is
// nothing to resume.
func (s Service) Resume(ctx context.Context) (Summary, bool, error) {
	ctx, span := tracer.Start(ctx, "Resume")
	defer span.End()

	state, err := s.store.Load(ctx, batchstore.KindTranscripts)
	if err == batchstore.ErrNoBatch {
		return Summary{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load batch state")
		return Summary{}, false, err
	}

	slog.InfoContext(
		ctx, "resuming transcript batch",
		"at", state.CurrentIndex,
		"items", len(state.Items),
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
				// the cursor stays put so `resume` retries this item
				return summary, ctx.Err()
			}
			var fatal *batchutil.Fatal
			if errors.As(err, &fatal) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "batch aborted")
				if clearErr := s.store.Clear(ctx, batchstore.KindTranscripts); clearErr != nil {
					span.RecordError(clearErr)
				}
				return summary, fatal.Err
			}
			slog.WarnContext(
				ctx, "skipping transcript",
				"title", item.Title,
				"href", item.Href,
				"error", err,
			)
			summary.Skipped++
		} else {
			summary.Processed++
		}

		state.CurrentIndex++
		err = s.store.Save(ctx, batchstore.KindTranscripts, state)
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

	err := s.store.Clear(ctx, batchstore.KindTranscripts)
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
		ctx, "transcript batch finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func (s Service) processItem(ctx context.Context, item batchstore.TOCItem) error {
	title, lines, err := s.client.Transcript(ctx, item.Href)
	if err != nil {
		return err
	}
	if title == "" {
		title = item.Title
	}

	var out strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&out, "%s\n%s\n\n", line.Time, line.Text)
	}

	path := filepath.Join(s.options.OutputDir, textutil.SanitizeFilename(title)+".txt")
	err = os.WriteFile(path, []byte(out.String()), 0o644)
	if err != nil {
		// the output directory is broken, continuing would skip everything
		return &batchutil.Fatal{Err: fmt.Errorf("write %s: %w", path, err)}
	}

	err = s.ledger.Record(ctx, manifest.Entry{
		Kind:      string(batchstore.KindTranscripts),
		Title:     title,
		Path:      path,
		ItemCount: len(lines),
	})
	if err != nil {
		return &batchutil.Fatal{Err: fmt.Errorf("record output: %w", err)}
	}

	slog.InfoContext(ctx, "saved transcript", "title", title, "lines", len(lines))
	return nil
}
