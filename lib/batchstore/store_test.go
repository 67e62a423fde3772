package batchstore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestStore(t testing.TB) Store {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(context.Background(), KindTranscripts)
	require.ErrorIs(t, err, ErrNoBatch)
	// callers should never have to know what the store is built on
	require.NotErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestSaveLoadClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := BatchState{
		Items: []TOCItem{
			{Title: "1. Intro", Href: "/videos/1"},
			{Title: "2. Setup", Href: "/videos/2"},
		},
		CurrentIndex: 1,
	}
	require.NoError(t, store.Save(ctx, KindTranscripts, state))

	loaded, err := store.Load(ctx, KindTranscripts)
	require.NoError(t, err)
	require.Equal(t, state, loaded)
	require.False(t, loaded.Done())
	require.Equal(t, "/videos/2", loaded.Current().Href)

	// kinds do not share a record
	_, err = store.Load(ctx, KindChapters)
	require.ErrorIs(t, err, ErrNoBatch)

	require.NoError(t, store.Clear(ctx, KindTranscripts))
	_, err = store.Load(ctx, KindTranscripts)
	require.ErrorIs(t, err, ErrNoBatch)
}

func TestSaveRejectsOutOfRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	items := []TOCItem{{Title: "only", Href: "/videos/1"}}

	require.Error(t, store.Save(ctx, KindTranscripts, BatchState{Items: items, CurrentIndex: 2}))
	require.Error(t, store.Save(ctx, KindTranscripts, BatchState{Items: items, CurrentIndex: -1}))

	// index == len(items) is the legal "exhausted" cursor
	require.NoError(t, store.Save(ctx, KindTranscripts, BatchState{Items: items, CurrentIndex: 1}))
	loaded, err := store.Load(ctx, KindTranscripts)
	require.NoError(t, err)
	require.True(t, loaded.Done())
}
