// Package batchstore persists the cursor of an in-progress batch download
// so it survives process restarts. One record per batch kind, JSON-encoded
// in a local badger store.
package batchstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lectern.lib.batchstore")

var ErrNoBatch = fmt.Errorf("no batch of this kind is in progress")

// Kind selects which batch's cursor a call refers to.
type Kind string

const (
	KindTranscripts Kind = "transcripts"
	KindChapters    Kind = "chapters"
)

// Kinds lists every batch kind, in the order `resume` probes them.
var Kinds = []Kind{KindTranscripts, KindChapters}

// TOCItem is one entry of a table of contents, in DOM order.
type TOCItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// BatchState is the only persisted entity: the full item list and the index
// of the next item to process.
//
// Invariant: 0 <= CurrentIndex <= len(Items).
type BatchState struct {
	Items        []TOCItem `json:"tocItems"`
	CurrentIndex int       `json:"currentIndex"`
}

// Done reports whether the cursor has run off the end of the item list.
func (s BatchState) Done() bool {
	return s.CurrentIndex >= len(s.Items)
}

// Current returns the item under the cursor.
func (s BatchState) Current() TOCItem {
	return s.Items[s.CurrentIndex]
}

type Store struct {
	db *badger.DB
}

func New(db *badger.DB) Store {
	return Store{db: db}
}

func key(kind Kind) []byte {
	return []byte("batch:" + string(kind))
}

// Load reads the persisted cursor, returning ErrNoBatch when no batch of
// this kind is in progress.
func (s Store) Load(ctx context.Context, kind Kind) (BatchState, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get(key(kind))
	if err == badger.ErrKeyNotFound {
		return BatchState{}, ErrNoBatch
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read batch state")
		return BatchState{}, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy batch state")
		return BatchState{}, err
	}

	var state BatchState
	err = json.Unmarshal(serialized, &state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize batch state")
		return BatchState{}, err
	}
	if state.CurrentIndex < 0 || state.CurrentIndex > len(state.Items) {
		// a corrupt cursor must not wedge future runs
		err = fmt.Errorf("persisted cursor out of range: %d of %d", state.CurrentIndex, len(state.Items))
		span.RecordError(err)
		if clearErr := s.Clear(ctx, kind); clearErr != nil {
			span.RecordError(clearErr)
		}
		return BatchState{}, err
	}

	return state, nil
}

// Save checkpoints the cursor. An out-of-range index is rejected so state
// is never persisted outside the invariant.
func (s Store) Save(ctx context.Context, kind Kind, state BatchState) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int("current_index", state.CurrentIndex),
		attribute.Int("items", len(state.Items)),
	)

	if state.CurrentIndex < 0 || state.CurrentIndex > len(state.Items) {
		err := fmt.Errorf("cursor out of range: %d of %d", state.CurrentIndex, len(state.Items))
		span.RecordError(err)
		span.SetStatus(codes.Error, "refusing to persist invalid cursor")
		return err
	}

	serialized, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize batch state")
		return err
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	err = tx.Set(key(kind), serialized)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set batch state")
		return err
	}
	return tx.Commit()
}

// Clear deletes the cursor, ending the batch.
func (s Store) Clear(ctx context.Context, kind Kind) error {
	ctx, span := tracer.Start(ctx, "Clear")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	err := tx.Delete(key(kind))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete batch state")
		return err
	}
	return tx.Commit()
}
