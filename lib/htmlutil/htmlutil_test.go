package htmlutil

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromString(t testing.TB, contents string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestGetAnchors(t *testing.T) {
	doc := docFromString(t, `<ol class="toc">
		<li><a href="/videos/1">  1.  Getting
		Started  </a></li>
		<li><a href="/videos/2">2. Interfaces</a></li>
		<li><a>no href</a></li>
	</ol>`)

	anchors := GetAnchors(context.Background(), doc.Find("ol.toc a"))
	require.Len(t, anchors, 3)
	require.Equal(t, Anchor{Name: "1. Getting Started", Href: "/videos/1"}, anchors[0])
	require.Equal(t, Anchor{Name: "2. Interfaces", Href: "/videos/2"}, anchors[1])
	require.Equal(t, "", anchors[2].Href)
}

func TestWaitForSelector(t *testing.T) {
	t.Run("AppearsBeforeTimeout", func(t *testing.T) {
		var calls atomic.Int64
		fetch := func(ctx context.Context) (*goquery.Document, error) {
			if calls.Add(1) < 3 {
				return docFromString(t, `<div class="empty"></div>`), nil
			}
			return docFromString(t, `<div class="transcript"><p>hi</p></div>`), nil
		}

		sel, err := WaitForSelector(context.Background(), fetch, "div.transcript", WaitOptions{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		require.NoError(t, err)
		require.NotNil(t, sel)
		require.Equal(t, "hi", sel.Find("p").Text())
	})

	t.Run("TimeoutResolvesNil", func(t *testing.T) {
		fetch := func(ctx context.Context) (*goquery.Document, error) {
			return docFromString(t, `<div class="empty"></div>`), nil
		}

		sel, err := WaitForSelector(context.Background(), fetch, "div.transcript", WaitOptions{
			Interval: time.Millisecond,
			Timeout:  time.Millisecond * 20,
		})
		require.NoError(t, err)
		require.Nil(t, sel)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fetch := func(ctx context.Context) (*goquery.Document, error) {
			return docFromString(t, `<div class="empty"></div>`), nil
		}

		_, err := WaitForSelector(ctx, fetch, "div.transcript", WaitOptions{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestWaitForGone(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context) (*goquery.Document, error) {
		if calls.Add(1) < 3 {
			return docFromString(t, `<div class="loading-spinner"></div>`), nil
		}
		return docFromString(t, `<div class="transcript"></div>`), nil
	}

	gone, err := WaitForGone(context.Background(), fetch, "div.loading-spinner", WaitOptions{
		Interval: time.Millisecond,
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	require.True(t, gone)
}
