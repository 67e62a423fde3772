package bookdoc

import (
	"bytes"
	"strings"

	"lectern/lib/textutil"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// decision is what the walker does with a node of a given kind.
type decision int

const (
	// skip the node and its whole subtree
	decisionSkip decision = iota
	// descend into children without emitting anything
	decisionRecurse
	// extract a block from the node, do not descend
	decisionTerminal
)

// classify implements the closed recurse/terminate table. Anything not
// listed is skipped.
func classify(n *html.Node) decision {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.P, atom.Figcaption, atom.Ul, atom.Ol, atom.Img, atom.Cite,
		atom.Table:
		return decisionTerminal
	case atom.Html, atom.Head, atom.Body, atom.Main,
		atom.Div, atom.Section, atom.Article, atom.Blockquote,
		atom.Figure, atom.Aside, atom.Header:
		return decisionRecurse
	}
	if isChapterWrapper(n) {
		return decisionRecurse
	}
	return decisionSkip
}

// wrapper id/class markers the host site puts around chapter bodies, also
// seen on custom elements the tag table doesn't know
var wrapperMarkers = []string{"book-content", "chapter"}

func isChapterWrapper(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "id" && attr.Key != "class" {
			continue
		}
		value := strings.ToLower(attr.Val)
		for _, marker := range wrapperMarkers {
			if strings.Contains(value, marker) {
				return true
			}
		}
	}
	return false
}

// FromHTML parses a chapter content-root fragment and extracts its blocks.
func FromHTML(contents string) ([]Element, error) {
	root, err := html.Parse(strings.NewReader(contents))
	if err != nil {
		return nil, err
	}
	return Extract(root), nil
}

// Extract walks the subtree in pre-order and emits one Element per
// recognized terminal tag, in DOM order.
func Extract(root *html.Node) []Element {
	var out []Element
	walk(root, &out)
	return out
}

func walk(n *html.Node, out *[]Element) {
	if n == nil {
		return
	}
	if n.Type != html.ElementNode {
		// documents and fragments still need their children walked
		if n.Type == html.DocumentNode {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, out)
			}
		}
		return
	}

	switch classify(n) {
	case decisionRecurse:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, out)
		}
	case decisionTerminal:
		if el, ok := extractTerminal(n); ok {
			*out = append(*out, el)
		}
	}
}

func extractTerminal(n *html.Node) (Element, bool) {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		text := cleanNodeText(n)
		if text == "" {
			return Element{}, false
		}
		return Element{
			Kind:  KindHeading,
			Level: int(n.Data[1] - '0'),
			Text:  text,
		}, true
	case atom.P:
		text := cleanNodeText(n)
		if text == "" {
			return Element{}, false
		}
		return Element{
			Kind:          KindParagraph,
			Text:          text,
			ChapterOpener: strings.Contains(attr(n, "class"), "opener"),
		}, true
	case atom.Figcaption, atom.Cite:
		text := cleanNodeText(n)
		if text == "" {
			return Element{}, false
		}
		return Element{Kind: KindCaption, Text: text}, true
	case atom.Img:
		src := attr(n, "src")
		if src == "" {
			return Element{}, false
		}
		return Element{Kind: KindImage, Src: src, Alt: attr(n, "alt")}, true
	case atom.Ul, atom.Ol:
		items := listItems(n)
		if len(items) == 0 {
			return Element{}, false
		}
		return Element{
			Kind:    KindList,
			Items:   items,
			Ordered: n.DataAtom == atom.Ol,
		}, true
	case atom.Table:
		table := extractTable(n)
		if len(table.Rows) == 0 {
			return Element{}, false
		}
		return Element{Kind: KindTable, Table: table}, true
	}
	return Element{}, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isFootnoteAnchor recognizes the site's footnote link markup so the
// reference text does not leak into paragraphs.
func isFootnoteAnchor(n *html.Node) bool {
	if n.DataAtom != atom.A {
		return false
	}
	if strings.Contains(attr(n, "class"), "footnote") {
		return true
	}
	href := attr(n, "href")
	return strings.Contains(href, "#fn") || strings.Contains(href, "#footnote")
}

// textWithout gathers text while skipping <sup> footnote markers and
// footnote anchors entirely.
func textWithout(n *html.Node, buffer *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buffer.WriteString(n.Data)
		return
	}
	if n.DataAtom == atom.Sup || isFootnoteAnchor(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		textWithout(c, buffer)
	}
}

func cleanNodeText(n *html.Node) string {
	var buffer bytes.Buffer
	textWithout(n, &buffer)
	return textutil.Clean(textutil.StripFootnoteRefs(buffer.String()))
}

func listItems(n *html.Node) []string {
	var items []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom != atom.Li {
			continue
		}
		text := cleanNodeText(c)
		if text == "" {
			continue
		}
		items = append(items, text)
	}
	return items
}
