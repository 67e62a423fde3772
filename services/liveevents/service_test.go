package liveevents

import (
	"context"
	"os"
	"testing"

	"lectern/lib/manifest"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	title   string
	tracks  []string
	body    string
	fetched []string
}

func (c *fakeClient) CaptionTracks(ctx context.Context, eventHref string) (string, []string, error) {
	return c.title, c.tracks, nil
}

func (c *fakeClient) FetchCaptions(ctx context.Context, url string) ([]byte, error) {
	c.fetched = append(c.fetched, url)
	return []byte(c.body), nil
}

func newTestService(t testing.TB, client Client) (Service, manifest.Manifest, string) {
	ledger, err := manifest.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ledger.Close() })

	outputDir := t.TempDir()
	return NewService(client, ledger, Options{OutputDir: outputDir}), ledger, outputDir
}

const captionFile = `WEBVTT

00:00:01.000 --> 00:00:02.000
Hello!

00:00:05.000 --> 00:00:09.500
Welcome to the keynote.
`

func TestDownload(t *testing.T) {
	client := &fakeClient{
		title: "GopherCon Keynote",
		tracks: []string{
			"/captions/keynote_FR.vtt",
			"/captions/keynote_EN.vtt",
			"/captions/keynote_DE.vtt",
		},
		body: captionFile,
	}
	service, ledger, _ := newTestService(t, client)
	ctx := context.Background()

	result, err := service.Download(ctx, "/events/gophercon")
	require.NoError(t, err)
	require.Equal(t, "GopherCon Keynote", result.Title)
	require.Equal(t, 2, result.Cues)
	require.Equal(t, []string{"/captions/keynote_EN.vtt"}, client.fetched,
		"only the english track is fetched")

	contents, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	require.Equal(t,
		"00:00:01.000 --> 00:00:02.000: Hello!\n"+
			"00:00:05.000 --> 00:00:09.500: Welcome to the keynote.\n",
		string(contents))

	entries, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "live-event", entries[0].Kind)
	require.Equal(t, 2, entries[0].ItemCount)
}

func TestDownloadNoEnglishTrack(t *testing.T) {
	client := &fakeClient{
		title:  "Atelier Go",
		tracks: []string{"/captions/atelier_FR.vtt"},
	}
	service, _, _ := newTestService(t, client)

	_, err := service.Download(context.Background(), "/events/atelier")
	require.ErrorIs(t, err, ErrNoEnglishCaptions)
	require.Empty(t, client.fetched)
}

func TestDownloadEmptyCaptionFile(t *testing.T) {
	client := &fakeClient{
		title:  "Empty",
		tracks: []string{"/captions/empty_EN.vtt"},
		body:   "WEBVTT\n",
	}
	service, _, _ := newTestService(t, client)

	_, err := service.Download(context.Background(), "/events/empty")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no cues")
}
