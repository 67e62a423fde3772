// Package liveevents downloads the caption track of a live-event replay
// page. Unlike the batch services this is a one-shot flow with no cursor:
// one page, one caption fetch, one text file.
package liveevents

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lectern/lib/manifest"
	"lectern/lib/textutil"
	"lectern/lib/vtt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lectern.services.liveevents")

var ErrNoEnglishCaptions = fmt.Errorf("the event offers no english caption track")

// Client is the slice of the site client this service needs.
type Client interface {
	CaptionTracks(ctx context.Context, eventHref string) (string, []string, error)
	FetchCaptions(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	OutputDir string
}

type Service struct {
	client  Client
	ledger  manifest.Manifest
	options Options
}

func NewService(client Client, ledger manifest.Manifest, options Options) Service {
	return Service{
		client:  client,
		ledger:  ledger,
		options: options,
	}
}

// Result describes the file a successful download produced.
type Result struct {
	Title string
	Path  string
	Cues  int
}

// Download discovers the event's caption tracks, fetches the first english
// one and writes it out as "<timerange>: <text>" lines.
func (s Service) Download(ctx context.Context, eventHref string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()
	span.SetAttributes(attribute.String("event", eventHref))

	title, urls, err := s.client.CaptionTracks(ctx, eventHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to discover caption tracks")
		return Result{}, err
	}

	english := vtt.SelectEnglish(urls)
	if len(english) == 0 {
		span.SetAttributes(attribute.Int("candidates", len(urls)))
		span.SetStatus(codes.Error, ErrNoEnglishCaptions.Error())
		return Result{}, ErrNoEnglishCaptions
	}
	if len(english) > 1 {
		slog.DebugContext(
			ctx, "multiple english caption tracks, taking the first",
			"tracks", english,
		)
	}

	body, err := s.client.FetchCaptions(ctx, english[0])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch caption file")
		return Result{}, err
	}

	cues, err := vtt.Parse(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse caption file")
		return Result{}, fmt.Errorf("parse captions %s: %w", english[0], err)
	}
	if len(cues) == 0 {
		err = fmt.Errorf("caption file has no cues: %s", english[0])
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	path := filepath.Join(s.options.OutputDir, textutil.SanitizeFilename(title)+".txt")
	contents := strings.Join(vtt.FormatLines(cues), "\n") + "\n"
	err = os.WriteFile(path, []byte(contents), 0o644)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write caption text")
		return Result{}, fmt.Errorf("write %s: %w", path, err)
	}

	err = s.ledger.Record(ctx, manifest.Entry{
		Kind:      "live-event",
		Title:     title,
		Path:      path,
		ItemCount: len(cues),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record output")
		return Result{}, err
	}

	span.SetAttributes(attribute.Int("cues", len(cues)))
	slog.InfoContext(ctx, "saved captions", "title", title, "cues", len(cues))
	return Result{Title: title, Path: path, Cues: len(cues)}, nil
}
