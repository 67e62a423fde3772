package vtt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const captionFixture = `WEBVTT
Kind: captions

NOTE this line is metadata

1
00:00:01.000 --> 00:00:02.000
Hello!

2
00:00:02.500 --> 00:00:04.000 align:start
Welcome to the
live event.
`

func TestParse(t *testing.T) {
	cues, err := Parse(strings.NewReader(captionFixture))
	require.NoError(t, err)
	require.Len(t, cues, 2)

	require.Equal(t, Cue{
		Start: "00:00:01.000",
		End:   "00:00:02.000",
		Text:  "Hello!",
	}, cues[0])

	require.Equal(t, "00:00:02.500", cues[1].Start)
	require.Equal(t, "00:00:04.000", cues[1].End, "cue settings after the end time are dropped")
	require.Equal(t, "Welcome to the live event.", cues[1].Text)
}

func TestFormatLines(t *testing.T) {
	cues, err := Parse(strings.NewReader("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello!\n"))
	require.NoError(t, err)

	lines := FormatLines(cues)
	require.Equal(t, []string{"00:00:01.000 --> 00:00:02.000: Hello!"}, lines)
}

func TestSelectEnglish(t *testing.T) {
	t.Run("PicksOnlyEnglish", func(t *testing.T) {
		got := SelectEnglish([]string{
			"https://cdn.example.com/captions/event-123_FR.vtt",
			"https://cdn.example.com/captions/event-123_EN.vtt",
			"https://cdn.example.com/captions/event-123_DE.vtt",
		})
		require.Equal(t, []string{"https://cdn.example.com/captions/event-123_EN.vtt"}, got)
	})

	t.Run("NoMatches", func(t *testing.T) {
		got := SelectEnglish([]string{
			"https://cdn.example.com/captions/event-123_FR.vtt",
		})
		require.Empty(t, got)
	})

	t.Run("NoFalseSubstringMatch", func(t *testing.T) {
		got := SelectEnglish([]string{
			"https://cdn.example.com/captions/french.vtt",
		})
		require.Empty(t, got)
	})

	t.Run("RegionVariants", func(t *testing.T) {
		got := SelectEnglish([]string{
			"https://cdn.example.com/captions/event_en-US.vtt",
		})
		require.Len(t, got, 1)
	})
}
