package transcripts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"lectern/lib/batchstore"
	"lectern/lib/htmlutil"
	"lectern/lib/manifest"
	"lectern/lib/scrapers/learn"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	toc []htmlutil.Anchor
	// hrefs the fake fails to extract
	failing map[string]bool
	// per-item transcripts keyed by href
	lines map[string][]learn.TranscriptLine
	calls []string
}

func (c *fakeClient) CourseTOC(ctx context.Context, courseHref string) ([]htmlutil.Anchor, error) {
	if c.toc == nil {
		return nil, learn.ErrTocNotFound
	}
	return c.toc, nil
}

func (c *fakeClient) Transcript(ctx context.Context, itemHref string) (string, []learn.TranscriptLine, error) {
	c.calls = append(c.calls, itemHref)
	if c.failing[itemHref] {
		return "", nil, fmt.Errorf("transcript body contains no lines: %s", itemHref)
	}
	return "Title of " + itemHref, c.lines[itemHref], nil
}

func newTestService(t testing.TB, client Client) (Service, batchstore.Store, string) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	store := batchstore.New(db)

	ledger, err := manifest.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ledger.Close() })

	outputDir := t.TempDir()
	return NewService(client, store, ledger, Options{OutputDir: outputDir}), store, outputDir
}

func TestStart(t *testing.T) {
	client := &fakeClient{
		toc: []htmlutil.Anchor{
			{Name: "1. Intro", Href: "/videos/1"},
			{Name: "2. Setup", Href: "/videos/2"},
		},
		lines: map[string][]learn.TranscriptLine{
			"/videos/1": {{Time: "0:01", Text: "Welcome."}},
			"/videos/2": {{Time: "0:01", Text: "Install Go."}, {Time: "0:10", Text: "Done."}},
		},
	}
	service, store, outputDir := newTestService(t, client)
	ctx := context.Background()

	summary, err := service.Start(ctx, "/courses/go-basics")
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 2, Skipped: 0}, summary)
	require.Equal(t, []string{"/videos/1", "/videos/2"}, client.calls)

	contents, err := os.ReadFile(filepath.Join(outputDir, "Title of _videos_2.txt"))
	require.NoError(t, err)
	require.Equal(t, "0:01\nInstall Go.\n\n0:10\nDone.\n\n", string(contents))

	// finishing clears the cursor
	_, err = store.Load(ctx, batchstore.KindTranscripts)
	require.ErrorIs(t, err, batchstore.ErrNoBatch)
}

func TestStartEmptyToc(t *testing.T) {
	service, _, _ := newTestService(t, &fakeClient{toc: []htmlutil.Anchor{}})
	_, err := service.Start(context.Background(), "/courses/empty")
	require.ErrorIs(t, err, ErrEmptyToc)
}

func TestSkipAndAdvance(t *testing.T) {
	client := &fakeClient{
		toc: []htmlutil.Anchor{
			{Name: "1", Href: "/videos/1"},
			{Name: "2", Href: "/videos/2"},
			{Name: "3", Href: "/videos/3"},
		},
		failing: map[string]bool{"/videos/2": true},
		lines: map[string][]learn.TranscriptLine{
			"/videos/1": {{Time: "0:01", Text: "a"}},
			"/videos/3": {{Time: "0:01", Text: "c"}},
		},
	}
	service, _, outputDir := newTestService(t, client)

	summary, err := service.Start(context.Background(), "/courses/x")
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 2, Skipped: 1}, summary)

	// the failed item produced no file but did not stop the batch
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestResume(t *testing.T) {
	client := &fakeClient{
		lines: map[string][]learn.TranscriptLine{
			"/videos/2": {{Time: "0:05", Text: "b"}},
		},
	}
	service, store, _ := newTestService(t, client)
	ctx := context.Background()

	// a previous run got through item 0 already
	err := store.Save(ctx, batchstore.KindTranscripts, batchstore.BatchState{
		Items: []batchstore.TOCItem{
			{Title: "1", Href: "/videos/1"},
			{Title: "2", Href: "/videos/2"},
		},
		CurrentIndex: 1,
	})
	require.NoError(t, err)

	summary, resumed, err := service.Resume(ctx)
	require.NoError(t, err)
	require.True(t, resumed)
	require.Equal(t, Summary{Processed: 1}, summary)
	require.Equal(t, []string{"/videos/2"}, client.calls, "item 0 must not be refetched")
}

func TestResumeWithoutBatch(t *testing.T) {
	service, _, _ := newTestService(t, &fakeClient{})
	_, resumed, err := service.Resume(context.Background())
	require.NoError(t, err)
	require.False(t, resumed)
}

func TestCancellationKeepsCursor(t *testing.T) {
	client := &fakeClient{
		toc: []htmlutil.Anchor{
			{Name: "1", Href: "/videos/1"},
			{Name: "2", Href: "/videos/2"},
		},
		lines: map[string][]learn.TranscriptLine{
			"/videos/1": {{Time: "0:01", Text: "a"}},
			"/videos/2": {{Time: "0:01", Text: "b"}},
		},
	}
	service, store, _ := newTestService(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancelAfterFirst := &cancellingClient{inner: client, cancel: cancel}
	service.client = cancelAfterFirst

	_, err := service.Start(ctx, "/courses/x")
	require.ErrorIs(t, err, context.Canceled)

	state, loadErr := store.Load(context.Background(), batchstore.KindTranscripts)
	require.NoError(t, loadErr)
	require.Equal(t, 1, state.CurrentIndex, "cursor points at the unfinished item")
}

// cancellingClient cancels the batch context when the second item is
// requested, as if the user hit ctrl-c between items.
type cancellingClient struct {
	inner  *fakeClient
	cancel context.CancelFunc
	n      int
}

func (c *cancellingClient) CourseTOC(ctx context.Context, courseHref string) ([]htmlutil.Anchor, error) {
	return c.inner.CourseTOC(ctx, courseHref)
}

func (c *cancellingClient) Transcript(ctx context.Context, itemHref string) (string, []learn.TranscriptLine, error) {
	c.n++
	if c.n > 1 {
		c.cancel()
		return "", nil, context.Canceled
	}
	return c.inner.Transcript(ctx, itemHref)
}
