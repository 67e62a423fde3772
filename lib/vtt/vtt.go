// Package vtt handles the WebVTT caption files attached to live-event
// recordings: picking a likely-English track and flattening cues to text.
package vtt

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"lectern/lib/textutil"
)

// Cue is one timed caption block.
type Cue struct {
	Start string
	End   string
	Text  string
}

const timeSeparator = " --> "

func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, "WEBVTT") ||
		strings.HasPrefix(line, "NOTE") ||
		strings.HasPrefix(line, "STYLE") ||
		strings.HasPrefix(line, "REGION")
}

// Parse reads cue blocks, dropping the WEBVTT header, NOTE/STYLE/REGION
// sections and numeric cue identifiers. Malformed timing lines are skipped
// rather than treated as fatal, caption files in the wild are messy.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)

	var cues []Cue
	var current *Cue
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			current = nil
			continue
		}
		if isHeaderLine(line) {
			current = nil
			continue
		}

		if strings.Contains(line, timeSeparator) {
			parts := strings.SplitN(line, timeSeparator, 2)
			end, _, _ := strings.Cut(strings.TrimSpace(parts[1]), " ")
			cues = append(cues, Cue{
				Start: strings.TrimSpace(parts[0]),
				End:   end,
			})
			current = &cues[len(cues)-1]
			continue
		}

		if current == nil {
			// a bare identifier line before the timing line
			continue
		}
		if current.Text == "" {
			current.Text = line
		} else {
			current.Text += " " + line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}

	return cues, nil
}

// englishTokens are matched against whole filename segments, not substrings:
// "french" must not match "en".
var englishTokens = []string{"en", "enus", "engb", "eng", "english"}

func isEnglishToken(token string) bool {
	for _, want := range englishTokens {
		if token == want {
			return true
		}
	}
	return false
}

// SelectEnglish filters candidate caption URLs down to likely-English ones
// by filename pattern. Returns an empty slice when nothing matches.
func SelectEnglish(urls []string) []string {
	matches := []string{}
	for _, raw := range urls {
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		base := path.Base(parsed.Path)
		base = strings.TrimSuffix(base, path.Ext(base))

		for _, token := range strings.FieldsFunc(base, func(r rune) bool {
			return r == '_' || r == '-' || r == '.'
		}) {
			if isEnglishToken(textutil.NormalizeName(token)) {
				matches = append(matches, raw)
				break
			}
		}
	}
	return matches
}

// FormatLines renders cues as "<start> --> <end>: <text>" lines.
func FormatLines(cues []Cue) []string {
	lines := make([]string, 0, len(cues))
	for _, cue := range cues {
		text := textutil.Clean(cue.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s --> %s: %s", cue.Start, cue.End, text))
	}
	return lines
}
